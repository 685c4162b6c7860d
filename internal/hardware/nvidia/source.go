// Package nvidia discovers NVIDIA GPUs through NVML and exposes each as a
// hardware device with temperature, load and power sensors.
package nvidia

import (
	"context"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/hardware"
	"codeberg.org/mutker/hwmonitor/internal/logger"
)

// Source discovers every GPU NVML can see.
type Source struct {
	lib         library
	initialized bool
}

func NewSource() *Source {
	return &Source{lib: nvmlLibrary{}}
}

func (*Source) Type() hardware.HardwareType {
	return hardware.GPUNvidia
}

// Discover initializes NVML and builds one device per GPU. A machine without
// the NVIDIA driver yields no devices rather than an error.
func (s *Source) Discover(_ context.Context) ([]hardware.Device, error) {
	errFactory := errors.New()

	if !s.initialized {
		ret := s.lib.Init()
		if isMissingDriver(ret) {
			logger.Info().Err(newNVMLError(ret)).Msg("NVML unavailable, no NVIDIA GPUs")
			return nil, nil
		}
		if !IsNVMLSuccess(ret) {
			return nil, errFactory.Wrap(ErrInitFailed, newNVMLError(ret))
		}
		s.initialized = true
	}

	count, ret := s.lib.DeviceGetCount()
	if !IsNVMLSuccess(ret) {
		return nil, errFactory.Wrap(ErrDeviceCountFailed, newNVMLError(ret))
	}

	devices := make([]hardware.Device, 0, count)
	for i := 0; i < count; i++ {
		handle, ret := s.lib.DeviceGetHandleByIndex(i)
		if !IsNVMLSuccess(ret) {
			return nil, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
		}
		devices = append(devices, newDevice(handle, i))
	}

	return devices, nil
}

func (s *Source) Close() error {
	if !s.initialized {
		return nil
	}

	ret := s.lib.Shutdown()
	if !IsNVMLSuccess(ret) {
		return errors.New().Wrap(ErrShutdownFailed, newNVMLError(ret))
	}
	s.initialized = false

	return nil
}
