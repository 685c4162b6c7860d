// Package hardware defines the provider capability surface: devices with
// ordered sensors, and a Computer that discovers them from hardware sources.
package hardware

import (
	"context"
	"time"
)

// Provider enumerates devices. Open must be called once before Devices.
type Provider interface {
	Open(ctx context.Context, opts Options) error
	Devices() []Device
	Close() error
}

// Device is a physical hardware unit holding an ordered list of sensors.
// The sensor order is stable for the lifetime of the device.
type Device interface {
	Type() HardwareType
	Name() string
	Sensors() []Sensor
	// Refresh re-reads every sensor value of the device.
	Refresh(ctx context.Context) error
}

// Sensor is a single scalar measurement. Value returns the reading cached by
// the owning device's last Refresh.
type Sensor interface {
	Name() string
	Type() SensorType
	Value() float64
}

// Source discovers the devices of one hardware family.
type Source interface {
	Type() HardwareType
	Discover(ctx context.Context) ([]Device, error)
	Close() error
}

// Options selects which hardware families Open enables.
type Options struct {
	CPU bool
	GPU bool
	// Timeout bounds the initial refresh of each discovered device. Zero
	// disables the bound.
	Timeout time.Duration
}

type HardwareType int

const (
	Unknown HardwareType = iota
	CPU
	GPUNvidia
	GPUAti
)

func (t HardwareType) String() string {
	switch t {
	case CPU:
		return "cpu"
	case GPUNvidia:
		return "gpu_nvidia"
	case GPUAti:
		return "gpu_ati"
	default:
		return "unknown"
	}
}

// IsGPU reports whether t is one of the GPU vendor types.
func (t HardwareType) IsGPU() bool {
	return t == GPUNvidia || t == GPUAti
}

type SensorType int

const (
	Temperature SensorType = iota
	Load
	Power
	Clock
	Fan
	Data
)

func (t SensorType) String() string {
	switch t {
	case Temperature:
		return "temperature"
	case Load:
		return "load"
	case Power:
		return "power"
	case Clock:
		return "clock"
	case Fan:
		return "fan"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}
