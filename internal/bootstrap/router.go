package bootstrap

import (
	"log"
	"net/http"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/handlers"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/middleware"
	"github.com/sabnocksid/lms-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	gate *handlers.GateHandler,
	recorder metrics.Recorder,
	redisClient *redis.Client,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	setupMetricsEndpoint(r, cfg)

	rateLimiter := setupRateLimiting(cfg, redisClient)

	setupGateRoutes(r, cfg, gate, rateLimiter)

	logServerStartup(cfg)

	return r
}

// setupGateRoutes configures the disclosure gate API
func setupGateRoutes(
	r *gin.Engine,
	cfg *config.Config,
	gate *handlers.GateHandler,
	rateLimiter gin.HandlerFunc,
) {
	api := r.Group("/api", rateLimiter, middleware.RequireAuth(cfg.JWTSecret))
	{
		api.POST("/lessons/:id/key", gate.RequestPartialKey)
		api.POST("/lessons/:id/key/verify", gate.VerifyPartialKey)
		api.GET("/lessons/:id/assets/:kind", gate.GetAssetURL)

		// Admin operations
		admin := api.Group("", middleware.RequireAdmin())
		admin.DELETE("/lessons/:id/key", gate.RevokeKey)
	}
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuth(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Lesson media gate starting on %s", cfg.ServerAddr)
	log.Printf("Base URL: %s", cfg.BaseURL)
	log.Printf("Disclosure fraction: %g (%d of %d bytes)",
		cfg.DisclosureFraction,
		int(float64(cfg.SecretLength)*cfg.DisclosureFraction),
		cfg.SecretLength,
	)
	log.Printf("Object store bucket: %s", cfg.ObjectStoreBucket)
}
