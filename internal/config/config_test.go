package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		SecretLength:          32,
		DisclosureFraction:    0.25,
		ProofFailureThreshold: 5,
		SignedURLExpiry:       time.Hour,
		RateLimitStoreType:    "memory",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid defaults",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name: "fraction at upper bound",
			mutate: func(c *Config) {
				c.DisclosureFraction = 0.5
			},
			expectError: false,
		},
		{
			name: "fraction zero",
			mutate: func(c *Config) {
				c.DisclosureFraction = 0
			},
			expectError: true,
			errorMsg:    "DISCLOSURE_FRACTION",
		},
		{
			name: "fraction reveals more than half",
			mutate: func(c *Config) {
				c.DisclosureFraction = 0.75
			},
			expectError: true,
			errorMsg:    "DISCLOSURE_FRACTION",
		},
		{
			name: "secret too short",
			mutate: func(c *Config) {
				c.SecretLength = 8
			},
			expectError: true,
			errorMsg:    "SECRET_LENGTH",
		},
		{
			name: "threshold below one",
			mutate: func(c *Config) {
				c.ProofFailureThreshold = 0
			},
			expectError: true,
			errorMsg:    "PROOF_FAILURE_THRESHOLD",
		},
		{
			name: "non-positive expiry",
			mutate: func(c *Config) {
				c.SignedURLExpiry = 0
			},
			expectError: true,
			errorMsg:    "SIGNED_URL_EXPIRY",
		},
		{
			name: "redis store without address",
			mutate: func(c *Config) {
				c.RateLimitStoreType = "redis"
				c.RedisAddr = ""
			},
			expectError: true,
			errorMsg:    "REDIS_ADDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 32, cfg.SecretLength)
	assert.Equal(t, 0.25, cfg.DisclosureFraction)
	assert.Equal(t, 5, cfg.ProofFailureThreshold)
	assert.Equal(t, time.Hour, cfg.SignedURLExpiry)
	assert.Equal(t, 3, cfg.PresignMaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCLOSURE_FRACTION", "0.5")
	t.Setenv("PROOF_FAILURE_THRESHOLD", "3")
	t.Setenv("SIGNED_URL_EXPIRY", "30m")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=lms")

	cfg := Load()

	assert.Equal(t, 0.5, cfg.DisclosureFraction)
	assert.Equal(t, 3, cfg.ProofFailureThreshold)
	assert.Equal(t, 30*time.Minute, cfg.SignedURLExpiry)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "host=localhost dbname=lms", cfg.DatabaseDSN)
}
