package hardware

import "codeberg.org/mutker/hwmonitor/internal/errors"

const (
	ErrOpenFailed    = errors.ErrorCode("provider_open_failed")
	ErrAlreadyOpen   = errors.ErrorCode("provider_already_open")
	ErrNotOpen       = errors.ErrorCode("provider_not_open")
	ErrRefreshFailed = errors.ErrorCode("provider_refresh_failed")
	ErrCloseFailed   = errors.ErrorCode("provider_close_failed")
	ErrTimeout       = errors.ErrorCode("provider_timeout")
)

func init() {
	errors.Register(ErrOpenFailed, "Failed to open hardware provider")
	errors.Register(ErrAlreadyOpen, "Hardware provider already open")
	errors.Register(ErrNotOpen, "Hardware provider not open")
	errors.Register(ErrRefreshFailed, "Failed to refresh device")
	errors.Register(ErrCloseFailed, "Failed to close hardware source")
	errors.Register(ErrTimeout, "Provider call timed out")
}
