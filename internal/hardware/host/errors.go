package host

import "codeberg.org/mutker/hwmonitor/internal/errors"

const (
	ErrDiscoverFailed    = errors.ErrorCode("host_discover_failed")
	ErrTemperatureFailed = errors.ErrorCode("host_temperature_read_failed")
	ErrLoadFailed        = errors.ErrorCode("host_load_read_failed")
	ErrPowerFailed       = errors.ErrorCode("host_power_read_failed")
)

func init() {
	errors.Register(ErrDiscoverFailed, "Failed to discover CPU sensors")
	errors.Register(ErrTemperatureFailed, "Failed to read CPU temperatures")
	errors.Register(ErrLoadFailed, "Failed to read CPU load")
	errors.Register(ErrPowerFailed, "Failed to read CPU power")
}
