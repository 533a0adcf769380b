// Package config holds the circuitlens configuration, loaded with
// Viper from a TOML file with environment overrides.
package config

// Config is the root circuitlens configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Sample   SampleConfig   `mapstructure:"sample"`
	Database DatabaseConfig `mapstructure:"database"`
	Graph    GraphConfig    `mapstructure:"graph"`
}

// ServerConfig configures the circuitlens web server.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BackendConfig configures the external inference backend.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DefaultModel   string `mapstructure:"default_model"`
}

// SampleConfig configures offline sample-data mode.
type SampleConfig struct {
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig configures group persistence. An empty path disables
// persistence entirely.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GraphConfig configures projection defaults.
type GraphConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
}

// Server port constants
const (
	DefaultServerPort = 8721
)
