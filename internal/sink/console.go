// Package sink holds the outputs report cycles are written to.
package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/report"
)

const labelWidth = 12

// Console renders each report as a header followed by one line per reading.
// Colors are only used when the writer is a terminal.
type Console struct {
	w io.Writer

	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	sensor lipgloss.Style
	notice lipgloss.Style
}

func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)

	return &Console{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:  r.NewStyle().Width(labelWidth),
		value:  r.NewStyle().Foreground(lipgloss.Color("10")),
		sensor: r.NewStyle().Faint(true),
		notice: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (c *Console) Emit(_ context.Context, cycle report.Cycle) error {
	var b strings.Builder

	for _, rep := range cycle.Reports {
		b.WriteString(c.header.Render(title(rep.Domain, rep.Kind.String())))
		b.WriteByte('\n')
		for _, r := range rep.Readings {
			fmt.Fprintf(&b, "  %s %s", c.label.Render(r.Label), c.value.Render(formatValue(r)))
			if r.Sensor != "" {
				b.WriteString("  " + c.sensor.Render(r.Sensor))
			}
			b.WriteByte('\n')
		}
	}

	for _, s := range cycle.Skipped {
		b.WriteString(c.notice.Render(title(s.Domain, s.Kind.String()) + ": initialization failed"))
		b.WriteByte('\n')
	}

	if b.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return errors.New().Wrap(ErrWriteFailed, err)
	}

	return nil
}

func title(d report.Domain, kind string) string {
	return strings.ToUpper(d.String()) + " " + kind
}

func formatValue(r report.Reading) string {
	return fmt.Sprintf("%6.1f %s", r.Value, r.Unit)
}
