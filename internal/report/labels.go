package report

import (
	"fmt"

	"codeberg.org/mutker/hwmonitor/internal/hardware"
)

// Fixed positional label tables. The meaning of each position follows the
// provider's enumeration order and is not guaranteed by it.
var (
	cpuPowerLabels = []string{"package", "cores", "graphics", "dram"}
	gpuLoadLabels  = []string{"core", "frame buffer", "video engine", "bus interface", "memory"}
	gpuPowerLabels = []string{"power"}
)

// entry assigns a label to a position in an index slot sequence.
type entry struct {
	pos   int
	label string
}

// layout returns the labeled positions to report, in output order, for a
// slot sequence of length n.
func layout(d Domain, kind hardware.SensorType, n int) []entry {
	switch {
	case d == CPU && kind == hardware.Temperature:
		// Cores first, the last sensor is the package.
		out := make([]entry, 0, n)
		for i := 0; i < n-1; i++ {
			out = append(out, entry{i, coreLabel(i + 1)})
		}
		return append(out, entry{n - 1, "package"})

	case d == CPU && kind == hardware.Load:
		// Slot 0 is the total, reported after the cores.
		out := make([]entry, 0, n)
		for i := 1; i < n; i++ {
			out = append(out, entry{i, coreLabel(i)})
		}
		return append(out, entry{0, "total"})

	case d == CPU && kind == hardware.Power:
		return fixed(cpuPowerLabels, n)

	case d == GPU && kind == hardware.Load:
		return fixed(gpuLoadLabels, n)

	case d == GPU && kind == hardware.Power:
		return fixed(gpuPowerLabels, n)

	default:
		out := make([]entry, n)
		for i := range out {
			out[i] = entry{i, coreLabel(i + 1)}
		}
		return out
	}
}

func fixed(labels []string, n int) []entry {
	out := make([]entry, 0, len(labels))
	for i, l := range labels {
		if i >= n {
			break
		}
		out = append(out, entry{i, l})
	}
	return out
}

func coreLabel(n int) string {
	return fmt.Sprintf("core #%d", n)
}
