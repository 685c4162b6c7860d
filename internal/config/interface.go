package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
	args       []string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithArgs sets the command line arguments to parse, without the program name
func WithArgs(args []string) Option {
	return func(o *options) error {
		o.args = args
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

func (l LogLevel) String() string {
	return string(l)
}

// Vendor selects which GPU hardware type the GPU index is built for
type Vendor string

const (
	VendorNvidia Vendor = "nvidia"
	VendorAMD    Vendor = "amd"
)

func (v Vendor) IsValid() bool {
	return v == VendorNvidia || v == VendorAMD
}

// Output selects the primary report sink
type Output string

const (
	OutputConsole Output = "console"
	OutputJSON    Output = "json"
	OutputNone    Output = "none"
)

func (o Output) IsValid() bool {
	switch o {
	case OutputConsole, OutputJSON, OutputNone:
		return true
	default:
		return false
	}
}
