package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validProductionConfig() *Config {
	return &Config{
		Env:           "production",
		Port:          "8080",
		JWTSecret:     strings.Repeat("s", 32),
		DBPassword:    "a-strong-password",
		DBSSLMode:     "require",
		StorageBucket: "nextblog-images",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid production config", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Missing storage bucket", func(c *Config) { c.StorageBucket = "" }, true},
		{"Default JWT secret in production", func(c *Config) {
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"Short JWT secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"Default DB password in production", func(c *Config) { c.DBPassword = "password" }, true},
		{"Empty DB password in production", func(c *Config) { c.DBPassword = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_DevelopmentIsLenient(t *testing.T) {
	c := &Config{
		Env:           "development",
		Port:          "8080",
		JWTSecret:     "dev-secret",
		StorageBucket: "nextblog-images",
	}
	assert.NoError(t, c.Validate(), "development tolerates weak secrets with a warning")
}
