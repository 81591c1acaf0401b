package config

// Default floating-point tolerance margins; see the detector's two-tier
// comparison policy.
const (
	DefaultRelativeErrorMargin = 1e-4
	DefaultAbsoluteErrorMargin = 1e-12
)

// New returns the default configuration, before the config file and flags
// are applied.
func New() *Config {
	return &Config{
		RelativeErrorMargin: DefaultRelativeErrorMargin,
		AbsoluteErrorMargin: DefaultAbsoluteErrorMargin,
		ConfigPath:          ".",
	}
}
