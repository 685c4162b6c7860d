package report

import "codeberg.org/mutker/hwmonitor/internal/errors"

const (
	// ErrNotInitialized is returned when a domain has no indexed sensors of
	// the requested kind. Run treats it as a skip, not a failure.
	ErrNotInitialized  = errors.ErrorCode("report_not_initialized")
	ErrStaleIndex      = errors.ErrorCode("report_stale_index")
	ErrUnsupportedKind = errors.ErrorCode("report_unsupported_kind")
	ErrEmitFailed      = errors.ErrorCode("report_emit_failed")
	ErrInvalidInterval = errors.ErrInvalidInterval
)

func init() {
	errors.Register(ErrNotInitialized, "Initialization failed")
	errors.Register(ErrStaleIndex, "Sensor index no longer matches the device list")
	errors.Register(ErrUnsupportedKind, "Unsupported report kind")
	errors.Register(ErrEmitFailed, "Failed to emit report")
}
