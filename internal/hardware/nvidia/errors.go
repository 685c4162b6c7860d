package nvidia

import (
	"codeberg.org/mutker/hwmonitor/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	// Initialization and Lifecycle Errors
	ErrInitFailed     = errors.ErrorCode("gpu_init_failed")
	ErrDeviceNotFound = errors.ErrorCode("gpu_device_not_found")
	ErrShutdownFailed = errors.ErrorCode("gpu_shutdown_failed")

	// Device Discovery Errors
	ErrDeviceCountFailed = errors.ErrorCode("gpu_device_count_failed")

	// Sensor Errors
	ErrTemperatureReadFailed = errors.ErrorCode("gpu_temperature_read_failed")
	ErrLoadReadFailed        = errors.ErrorCode("gpu_load_read_failed")
	ErrPowerReadFailed       = errors.ErrorCode("gpu_power_read_failed")
	ErrFanReadFailed         = errors.ErrorCode("gpu_fan_read_failed")
)

func init() {
	errors.Register(ErrInitFailed, "Failed to initialize NVML")
	errors.Register(ErrDeviceNotFound, "GPU device not found")
	errors.Register(ErrShutdownFailed, "Failed to shut down NVML")
	errors.Register(ErrDeviceCountFailed, "Failed to count GPU devices")
	errors.Register(ErrTemperatureReadFailed, "Failed to read GPU temperature")
	errors.Register(ErrLoadReadFailed, "Failed to read GPU load")
	errors.Register(ErrPowerReadFailed, "Failed to read GPU power")
	errors.Register(ErrFanReadFailed, "Failed to read GPU fan speed")
}

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}

// isMissingDriver reports whether ret means there is no usable NVIDIA stack
// on this machine, as opposed to a failure of one that exists.
func isMissingDriver(ret nvml.Return) bool {
	switch ret {
	case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_DRIVER_NOT_LOADED, nvml.ERROR_NO_PERMISSION:
		return true
	default:
		return false
	}
}
