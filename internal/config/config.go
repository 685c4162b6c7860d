package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/hwmonitor/internal/errors"
)

const (
	DefaultConfigFile      = "/etc/hwmonitor.toml"
	DefaultEnvPrefix       = "HWMONITOR"
	DefaultInterval        = 2 * time.Second
	DefaultProviderTimeout = 5 * time.Second
	DefaultProviderRetries = 1
	DefaultLogLevel        = LogLevelInfo
	DefaultVendor          = VendorNvidia
	DefaultOutput          = OutputConsole
)

// DefaultReports is the set of report kinds run each cycle when none are
// configured.
var DefaultReports = []string{"temperature"}

var validReports = map[string]bool{
	"temperature": true,
	"load":        true,
	"power":       true,
}

type Config struct {
	Interval        time.Duration
	CPU             bool
	GPU             bool
	GPUVendor       Vendor
	Reports         []string
	ProviderTimeout time.Duration
	ProviderRetries int
	Output          Output
	JSONPath        string
	TextfilePath    string
	LogLevel        LogLevel
}

// flag name -> config key, for keys whose flag is spelled differently
var flagKeys = map[string]string{
	"gpu-vendor":       "gpu_vendor",
	"provider-timeout": "provider_timeout",
	"provider-retries": "provider_retries",
	"json-path":        "json_path",
	"textfile-path":    "textfile_path",
	"log-level":        "log_level",
}

// Load reads configuration from defaults, the config file, the environment
// and command line flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix: DefaultEnvPrefix,
		args:      os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("cpu", true)
	v.SetDefault("gpu", true)
	v.SetDefault("gpu_vendor", string(DefaultVendor))
	v.SetDefault("reports", DefaultReports)
	v.SetDefault("provider_timeout", DefaultProviderTimeout)
	v.SetDefault("provider_retries", DefaultProviderRetries)
	v.SetDefault("output", string(DefaultOutput))
	v.SetDefault("json_path", "")
	v.SetDefault("textfile_path", "")
	v.SetDefault("log_level", string(DefaultLogLevel))
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("hwmonitor", pflag.ContinueOnError)

	fs.String("config", "", "Path to the configuration file")
	fs.Duration("interval", DefaultInterval, "Interval between report cycles")
	fs.Bool("cpu", true, "Report CPU sensors")
	fs.Bool("gpu", true, "Report GPU sensors")
	fs.String("gpu-vendor", string(DefaultVendor), "GPU vendor to report (nvidia, amd)")
	fs.StringSlice("reports", DefaultReports, "Reports to run each cycle (temperature, load, power)")
	fs.Duration("provider-timeout", DefaultProviderTimeout, "Timeout for a single hardware refresh")
	fs.Int("provider-retries", DefaultProviderRetries, "Retries for a failed hardware refresh")
	fs.String("output", string(DefaultOutput), "Report output (console, json, none)")
	fs.String("json-path", "", "File to append JSON lines to (default stdout)")
	fs.String("textfile-path", "", "Prometheus textfile to write after every cycle")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")

	return fs
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.New().Wrap(errors.ErrBindFlags, err)
		}
	})
	return bindErr
}

// readConfigFile picks the file from --config, WithConfigFile or the
// environment, falling back to DefaultConfigFile. Only the fallback may be
// missing.
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o *options) error {
	path, _ := fs.GetString("config")
	if path == "" {
		path = o.configPath
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return errors.New().Wrap(errors.ErrReadConfig, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errors.New().Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	interval, err := duration(v, "interval")
	if err != nil {
		return nil, errors.New().WithData(errors.ErrInvalidInterval, v.Get("interval"))
	}
	timeout, err := duration(v, "provider_timeout")
	if err != nil {
		return nil, errors.New().WithData(ErrInvalidTimeout, v.Get("provider_timeout"))
	}

	return &Config{
		Interval:        interval,
		CPU:             v.GetBool("cpu"),
		GPU:             v.GetBool("gpu"),
		GPUVendor:       Vendor(strings.ToLower(v.GetString("gpu_vendor"))),
		Reports:         splitList(v.GetStringSlice("reports")),
		ProviderTimeout: timeout,
		ProviderRetries: v.GetInt("provider_retries"),
		Output:          Output(strings.ToLower(v.GetString("output"))),
		JSONPath:        v.GetString("json_path"),
		TextfilePath:    v.GetString("textfile_path"),
		LogLevel:        LogLevel(strings.ToLower(v.GetString("log_level"))),
	}, nil
}

// duration accepts Go duration strings and plain numbers, which are taken
// as seconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	switch val := v.Get(key).(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case string:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		return time.ParseDuration(val)
	default:
		return v.GetDuration(key), nil
	}
}

// splitList also splits comma separated entries, as given by the
// environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval.String())
	}
	if c.ProviderTimeout <= 0 {
		return errFactory.WithData(ErrInvalidTimeout, c.ProviderTimeout.String())
	}
	if c.ProviderRetries < 0 {
		return errFactory.WithData(ErrInvalidRetries, c.ProviderRetries)
	}
	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel.String())
	}
	if !c.GPUVendor.IsValid() {
		return errFactory.WithData(ErrInvalidVendor, string(c.GPUVendor))
	}
	if !c.Output.IsValid() {
		return errFactory.WithData(ErrInvalidOutput, string(c.Output))
	}
	if len(c.Reports) == 0 {
		return errFactory.WithData(ErrInvalidReport, "none")
	}
	for _, r := range c.Reports {
		if !validReports[r] {
			return errFactory.WithData(ErrInvalidReport, r)
		}
	}

	return nil
}
