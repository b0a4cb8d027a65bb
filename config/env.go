package config

import (
	"os"
)

// Environment names the runtime mode the process was launched in. It decides
// where configuration values come from: env vars for development/test/CI,
// Docker secrets for production.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment resolves the runtime mode. CI pipelines export CI=true and
// win over ENV; anything unset or unrecognized runs as development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	case "development":
		return Development
	default:
		return Development
	}
}

// IsProduction reports whether the process runs in production mode.
func IsProduction() bool {
	return GetEnvironment() == Production
}
