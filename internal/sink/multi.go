package sink

import (
	"context"
	"io"

	"codeberg.org/mutker/hwmonitor/internal/report"
)

// Multi emits each cycle to every sink in order. All sinks see the cycle
// even if an earlier one fails; the first error is returned.
type Multi []report.Sink

func (m Multi) Emit(ctx context.Context, c report.Cycle) error {
	var first error
	for _, s := range m {
		if err := s.Emit(ctx, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every sink that holds a resource.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
