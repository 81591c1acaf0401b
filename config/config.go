// Package config provides configuration structures for the verifier.
package config

// Config is the full configuration of a verification run. Loaded from the
// verisql.yml file and overridden by CLI flags through viper.
type Config struct {
	RelativeErrorMargin float64 `json:"relativeErrorMargin" yaml:"relativeErrorMargin" mapstructure:"relativeErrorMargin"`
	AbsoluteErrorMargin float64 `json:"absoluteErrorMargin" yaml:"absoluteErrorMargin" mapstructure:"absoluteErrorMargin"`
	Table               string  `json:"table" yaml:"table" mapstructure:"table"`
	ColumnsPath         string  `json:"columnsPath" yaml:"columnsPath" mapstructure:"columnsPath"`
	ReportPath          string  `json:"reportPath" yaml:"reportPath" mapstructure:"reportPath"`
	ConfigPath          string  `json:"configPath" yaml:"configPath" mapstructure:"configPath"`
	Debug               bool    `json:"debug" yaml:"debug" mapstructure:"debug"`
	Control             Cluster `json:"control" yaml:"control" mapstructure:"control"`
	Test                Cluster `json:"test" yaml:"test" mapstructure:"test"`
	Auth                Auth    `json:"auth" yaml:"auth" mapstructure:"auth"`
}

// Cluster identifies one side of the comparison: the statement endpoint plus
// the catalog/schema the source relation resolves against.
type Cluster struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Catalog  string `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Schema   string `json:"schema" yaml:"schema" mapstructure:"schema"`
	User     string `json:"user" yaml:"user" mapstructure:"user"`
}

// Auth configures token acquisition against the query gateway. Disabled by
// default; when enabled the acquired token is sent as a bearer token on
// every statement request.
type Auth struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	LoginURL   string `json:"loginUrl" yaml:"loginUrl" mapstructure:"loginUrl"`
	User       string `json:"user" yaml:"user" mapstructure:"user"`
	Group      string `json:"group" yaml:"group" mapstructure:"group"`
	ClientCert string `json:"clientCert" yaml:"clientCert" mapstructure:"clientCert"`
	ClientKey  string `json:"clientKey" yaml:"clientKey" mapstructure:"clientKey"`
}
