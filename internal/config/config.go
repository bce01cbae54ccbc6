package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Asset kind constants
const (
	AssetKindVideo    = "video"
	AssetKindDocument = "document"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// JWT settings (inbound identity tokens)
	JWTSecret string

	// Disclosure settings
	SecretLength       int     // bytes of the grant secret
	DisclosureFraction float64 // leading fraction revealed as the partial key

	// Proof failure lockout
	ProofFailureThreshold int           // mismatches before RateLimited
	ProofLockoutWindow    time.Duration // how long the failure counter lives

	// Signed URL settings
	SignedURLExpiry time.Duration

	// Object store (S3-compatible)
	ObjectStoreEndpoint  string
	ObjectStoreBucket    string
	ObjectStoreRegion    string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreUseSSL    bool

	// Presign retry settings
	PresignTimeout    time.Duration
	PresignMaxRetries int

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Rate limiting (HTTP layer)
	RateLimitEnabled           bool
	RateLimitRequestsPerMinute int
	RateLimitStoreType         string // "memory" or "redis"
	RedisAddr                  string
	RedisPassword              string
	RedisDB                    int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Revoked grant cleanup
	GrantPurgeEnabled   bool
	GrantPurgeRetention time.Duration // keep revoked grants this long
	GrantPurgeInterval  time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "lms.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("PRODUCTION", false),
		JWTSecret:    getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),

		SecretLength:       getEnvInt("SECRET_LENGTH", 32),
		DisclosureFraction: getEnvFloat("DISCLOSURE_FRACTION", 0.25),

		ProofFailureThreshold: getEnvInt("PROOF_FAILURE_THRESHOLD", 5),
		ProofLockoutWindow:    getEnvDuration("PROOF_LOCKOUT_WINDOW", 15*time.Minute),

		SignedURLExpiry: getEnvDuration("SIGNED_URL_EXPIRY", time.Hour),

		ObjectStoreEndpoint:  getEnv("OBJECT_STORE_ENDPOINT", "s3.amazonaws.com"),
		ObjectStoreBucket:    getEnv("OBJECT_STORE_BUCKET", "lms-media"),
		ObjectStoreRegion:    getEnv("OBJECT_STORE_REGION", "us-east-1"),
		ObjectStoreAccessKey: getEnv("OBJECT_STORE_ACCESS_KEY", ""),
		ObjectStoreSecretKey: getEnv("OBJECT_STORE_SECRET_KEY", ""),
		ObjectStoreUseSSL:    getEnvBool("OBJECT_STORE_USE_SSL", true),

		PresignTimeout:    getEnvDuration("PRESIGN_TIMEOUT", 10*time.Second),
		PresignMaxRetries: getEnvInt("PRESIGN_MAX_RETRIES", 3),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		RateLimitEnabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerMinute: getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitStoreType:         getEnv("RATE_LIMIT_STORE", "memory"),
		RedisAddr:                  getEnv("REDIS_ADDR", ""),
		RedisPassword:              getEnv("REDIS_PASSWORD", ""),
		RedisDB:                    getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		GrantPurgeEnabled:   getEnvBool("GRANT_PURGE_ENABLED", true),
		GrantPurgeRetention: getEnvDuration("GRANT_PURGE_RETENTION", 90*24*time.Hour),
		GrantPurgeInterval:  getEnvDuration("GRANT_PURGE_INTERVAL", 24*time.Hour),
	}
}

// Validate checks settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.SecretLength < 16 {
		return fmt.Errorf("SECRET_LENGTH must be at least 16, got %d", c.SecretLength)
	}
	// Disclosing more than half the secret defeats the withholding scheme
	if c.DisclosureFraction <= 0 || c.DisclosureFraction > 0.5 {
		return fmt.Errorf(
			"DISCLOSURE_FRACTION must be in (0, 0.5], got %g",
			c.DisclosureFraction,
		)
	}
	if c.ProofFailureThreshold < 1 {
		return fmt.Errorf(
			"PROOF_FAILURE_THRESHOLD must be at least 1, got %d",
			c.ProofFailureThreshold,
		)
	}
	if c.SignedURLExpiry <= 0 {
		return fmt.Errorf("SIGNED_URL_EXPIRY must be positive, got %s", c.SignedURLExpiry)
	}
	if c.RateLimitStoreType == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("RATE_LIMIT_STORE=redis requires REDIS_ADDR")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
