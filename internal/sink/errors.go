package sink

import "codeberg.org/mutker/hwmonitor/internal/errors"

const (
	ErrOpenFailed     = errors.ErrorCode("sink_open_failed")
	ErrWriteFailed    = errors.ErrorCode("sink_write_failed")
	ErrTextfileFailed = errors.ErrorCode("sink_textfile_failed")
	ErrRegisterFailed = errors.ErrorCode("sink_register_failed")
	ErrCloseFailed    = errors.ErrorCode("sink_close_failed")
)

func init() {
	errors.Register(ErrOpenFailed, "Failed to open output")
	errors.Register(ErrWriteFailed, "Failed to write report")
	errors.Register(ErrTextfileFailed, "Failed to write metrics textfile")
	errors.Register(ErrRegisterFailed, "Failed to register metrics")
	errors.Register(ErrCloseFailed, "Failed to close output")
}
