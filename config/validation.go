package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration carries everything the
// application needs to start. Validation looks at the resulting Config, not
// at where the values came from, so environment variables, .env files and
// Docker secrets are all acceptable sources.
func ValidateConfig(cfg *Config) error {
	var errors []string

	required := []struct {
		field string
		value string
	}{
		{"ServerPort", cfg.ServerPort},
		{"ServerHost", cfg.ServerHost},
		{"DBHost", cfg.DBHost},
		{"DBPort", cfg.DBPort},
		{"DBUser", cfg.DBUser},
		{"DBPassword", cfg.DBPassword},
		{"DBName", cfg.DBName},
		{"JWTSecret", cfg.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{Field: r.field, Message: "is required"}.Error())
		}
	}

	// Redis is addressed either by URL or by host/port.
	if cfg.RedisURL == "" && (cfg.RedisHost == "" || cfg.RedisPort == "") {
		errors = append(errors, ValidationError{Field: "Redis", Message: "either REDIS_URL or REDIS_HOST and REDIS_PORT must be set"}.Error())
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16 {
		errors = append(errors, ValidationError{Field: "JWTSecret", Message: "must be at least 16 characters"}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
