package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  logger.LogLevel
		valid bool
	}{
		{"debug", logger.DebugLevel, true},
		{"info", logger.InfoLevel, true},
		{"warning", logger.WarnLevel, true},
		{"warn", logger.WarnLevel, true},
		{"error", logger.ErrorLevel, true},
		{"verbose", logger.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := logger.ParseLevel(tt.name)
		assert.Equal(t, tt.valid, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, logger.WarnLevel, true)
	t.Cleanup(func() { logger.SetLogLevel(logger.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.Warn().Str("domain", "cpu").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "domain=cpu")
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, logger.DebugLevel, true)
	t.Cleanup(func() { logger.SetLogLevel(logger.InfoLevel) })

	logger.ErrorWithCode(errors.New().New(errors.ErrTimeout)).Msg("refresh failed")

	assert.Contains(t, buf.String(), "error_code=operation_timeout")
	assert.Contains(t, buf.String(), "refresh failed")
}
