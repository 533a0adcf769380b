package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{"http://localhost"})

	// Inference backend defaults (the FastAPI process listens on 8000)
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout_seconds", 120)
	v.SetDefault("backend.default_model", "gpt2-small")

	// Offline sample data
	v.SetDefault("sample.dir", "data")

	// Group persistence
	v.SetDefault("database.path", "circuitlens.db")

	// Projection defaults
	v.SetDefault("graph.default_threshold", 0.3)
}
