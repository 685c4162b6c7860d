package report

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
)

// Domain is one of the two tracked hardware categories.
type Domain int

const (
	CPU Domain = iota
	GPU
)

// Domains lists every domain in report order.
var Domains = []Domain{CPU, GPU}

func (d Domain) String() string {
	if d == GPU {
		return "gpu"
	}
	return "cpu"
}

// Reading is a single labeled sensor value.
type Reading struct {
	Domain Domain
	Kind   hardware.SensorType
	Label  string
	// Sensor is the provider's name for the sensor the label was assigned to.
	Sensor string
	Value  float64
	Unit   string
}

// Report holds the readings of one kind for one domain.
type Report struct {
	Domain   Domain
	Kind     hardware.SensorType
	Readings []Reading
}

// Skip records a report that could not be produced because its domain has no
// indexed sensors of that kind.
type Skip struct {
	Domain Domain
	Kind   hardware.SensorType
}

// Cycle is everything reported in one loop iteration.
type Cycle struct {
	Seq     uint64
	Time    time.Time
	Reports []Report
	Skipped []Skip
}

// Sink consumes report cycles.
type Sink interface {
	Emit(ctx context.Context, c Cycle) error
}

type nopSink struct{}

func (nopSink) Emit(context.Context, Cycle) error { return nil }

// Unit returns the display unit for a sensor kind.
func Unit(kind hardware.SensorType) string {
	switch kind {
	case hardware.Temperature:
		return "°C"
	case hardware.Load:
		return "%"
	case hardware.Power:
		return "W"
	default:
		return ""
	}
}

// ParseKind maps a configured report name to the sensor kind it reports.
func ParseKind(name string) (hardware.SensorType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "temperature":
		return hardware.Temperature, nil
	case "load":
		return hardware.Load, nil
	case "power":
		return hardware.Power, nil
	default:
		return 0, errors.New().WithData(ErrUnsupportedKind, name)
	}
}
