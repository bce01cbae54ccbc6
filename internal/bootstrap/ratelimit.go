package bootstrap

import (
	"log"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// setupRateLimiting builds the per-client request limiter applied to
// the API group. Returns a no-op middleware when disabled.
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) gin.HandlerFunc {
	if !cfg.RateLimitEnabled {
		return func(c *gin.Context) { c.Next() }
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStoreType)
	log.Printf("Rate limiting enabled (store: %s, %d req/min)",
		storeType, cfg.RateLimitRequestsPerMinute)

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitRequestsPerMinute,
		StoreType:         storeType,
		RedisClient:       redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create rate limiter: %v", err)
	}
	return limiter
}
