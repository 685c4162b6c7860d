package hardware

import (
	"context"
	"time"

	"codeberg.org/mutker/hwmonitor/internal/errors"
)

// Call runs fn bounded by timeout. If the deadline passes or ctx is cancelled
// before fn returns, Call returns at once and fn is abandoned; the returned
// channel is then closed when fn finally returns, and callers must not start
// another call on the same device before that. A completed call returns a nil
// channel. A timeout of zero runs fn inline without a bound.
func Call(ctx context.Context, timeout time.Duration, fn func(context.Context) error) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fn(ctx)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result <- fn(cctx)
	}()

	select {
	case err := <-result:
		return nil, err
	case <-cctx.Done():
		select {
		case err := <-result:
			return nil, err
		default:
		}
		if err := ctx.Err(); err != nil {
			return finished, err
		}
		return finished, errors.New().Wrap(ErrTimeout, cctx.Err())
	}
}
