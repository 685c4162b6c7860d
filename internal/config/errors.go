package config

import "codeberg.org/mutker/hwmonitor/internal/errors"

const (
	ErrInvalidVendor  = errors.ErrorCode("config_invalid_vendor")
	ErrInvalidReport  = errors.ErrorCode("config_invalid_report")
	ErrInvalidOutput  = errors.ErrorCode("config_invalid_output")
	ErrInvalidTimeout = errors.ErrorCode("config_invalid_timeout")
	ErrInvalidRetries = errors.ErrorCode("config_invalid_retries")
)

func init() {
	errors.Register(ErrInvalidVendor, "Invalid GPU vendor")
	errors.Register(ErrInvalidReport, "Invalid report kind")
	errors.Register(ErrInvalidOutput, "Invalid output")
	errors.Register(ErrInvalidTimeout, "Invalid provider timeout")
	errors.Register(ErrInvalidRetries, "Invalid provider retry count")
}
