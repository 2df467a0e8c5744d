package web

import (
	"github.com/propertyregister/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig
	Features FeatureConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	// ImportEnabled exposes the CSV import endpoint. Off in deployments
	// where imports run through the CLI only.
	ImportEnabled bool
	// FailOpenSearch controls whether search degrades to empty results on
	// store errors instead of returning 500s.
	FailOpenSearch bool
}

// ConfigFromEnv builds the server configuration from environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port: config.GetEnvInt("WEB_PORT", 8080),
			Host: config.GetEnv("WEB_HOST", "0.0.0.0"),
		},
		Features: FeatureConfig{
			ImportEnabled:  config.GetEnvBool("ENABLE_IMPORT", true),
			FailOpenSearch: config.GetEnvBool("SEARCH_FAIL_OPEN", true),
		},
	}
}
