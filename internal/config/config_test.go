package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwmonitor/internal/config"
	"codeberg.org/mutker/hwmonitor/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hwmonitor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
interval = 5
cpu = true
gpu = false
gpu_vendor = "amd"
reports = ["temperature", "load", "power"]
provider_timeout = "750ms"
provider_retries = 3
output = "json"
json_path = "/var/log/hwmonitor.jsonl"
textfile_path = "/var/lib/node_exporter/hwmonitor.prom"
log_level = "debug"
`)

	cfg, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.True(t, cfg.CPU)
	assert.False(t, cfg.GPU)
	assert.Equal(t, config.VendorAMD, cfg.GPUVendor)
	assert.Equal(t, []string{"temperature", "load", "power"}, cfg.Reports)
	assert.Equal(t, 750*time.Millisecond, cfg.ProviderTimeout)
	assert.Equal(t, 3, cfg.ProviderRetries)
	assert.Equal(t, config.OutputJSON, cfg.Output)
	assert.Equal(t, "/var/log/hwmonitor.jsonl", cfg.JSONPath)
	assert.Equal(t, "/var/lib/node_exporter/hwmonitor.prom", cfg.TextfilePath)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.WithConfigFile(writeConfig(t, "")), config.WithArgs(nil))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.True(t, cfg.CPU)
	assert.True(t, cfg.GPU)
	assert.Equal(t, config.VendorNvidia, cfg.GPUVendor)
	assert.Equal(t, []string{"temperature"}, cfg.Reports)
	assert.Equal(t, config.DefaultProviderTimeout, cfg.ProviderTimeout)
	assert.Equal(t, config.DefaultProviderRetries, cfg.ProviderRetries)
	assert.Equal(t, config.OutputConsole, cfg.Output)
	assert.Empty(t, cfg.JSONPath)
	assert.Empty(t, cfg.TextfilePath)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	t.Setenv("HWMONITOR_CONFIG", writeConfig(t, `log_level = "error"`))

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelError, cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(
		config.WithConfigFile(filepath.Join(t.TempDir(), "missing.toml")),
		config.WithArgs(nil),
	)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, `
interval = 10
log_level = "error"
output = "none"
`)
	t.Setenv("HWMONITOR_INTERVAL", "3s")
	t.Setenv("HWMONITOR_LOG_LEVEL", "warning")

	cfg, err := config.Load(
		config.WithConfigFile(path),
		config.WithArgs([]string{"--log-level", "debug"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Interval, "environment overrides file")
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel, "flag overrides environment")
	assert.Equal(t, config.OutputNone, cfg.Output, "file overrides default")
}

func TestFlags(t *testing.T) {
	cfg, err := config.Load(
		config.WithConfigFile(writeConfig(t, "")),
		config.WithArgs([]string{
			"--interval", "500ms",
			"--gpu=false",
			"--reports", "load,power",
			"--provider-retries", "0",
			"--textfile-path", "/tmp/hw.prom",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.False(t, cfg.GPU)
	assert.Equal(t, []string{"load", "power"}, cfg.Reports)
	assert.Equal(t, 0, cfg.ProviderRetries)
	assert.Equal(t, "/tmp/hw.prom", cfg.TextfilePath)
}

func TestReportsFromEnv(t *testing.T) {
	t.Setenv("HWMONITOR_REPORTS", "Load, power")

	cfg, err := config.Load(config.WithConfigFile(writeConfig(t, "")), config.WithArgs(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "power"}, cfg.Reports)
}

func TestConfigFlag(t *testing.T) {
	path := writeConfig(t, `gpu_vendor = "amd"`)

	cfg, err := config.Load(config.WithArgs([]string{"--config", path}))
	require.NoError(t, err)
	assert.Equal(t, config.VendorAMD, cfg.GPUVendor)
}

func TestHelpFlag(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(writeConfig(t, "")), config.WithArgs([]string{"--help"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"zero interval", `interval = 0`, errors.ErrInvalidInterval},
		{"negative interval", `interval = "-2s"`, errors.ErrInvalidInterval},
		{"unparsable interval", `interval = "soon"`, errors.ErrInvalidInterval},
		{"invalid log level", `log_level = "invalid"`, errors.ErrInvalidLogLevel},
		{"invalid vendor", `gpu_vendor = "intel"`, config.ErrInvalidVendor},
		{"invalid report", `reports = ["fan"]`, config.ErrInvalidReport},
		{"no reports", `reports = []`, config.ErrInvalidReport},
		{"invalid output", `output = "syslog"`, config.ErrInvalidOutput},
		{"zero timeout", `provider_timeout = 0`, config.ErrInvalidTimeout},
		{"negative retries", `provider_retries = -1`, config.ErrInvalidRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(config.WithConfigFile(writeConfig(t, tt.content)), config.WithArgs(nil))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestInvalidLogLevelMessage(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(writeConfig(t, `log_level = "invalid"`)), config.WithArgs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level: invalid")
}
