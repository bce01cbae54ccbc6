package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRedisClientShutdownJob(m, app.RedisClient)
	addGrantPurgeJob(m, app.Config, app.DB)

	<-m.Done()
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addGrantPurgeJob adds the periodic cleanup of old revoked grants
func addGrantPurgeJob(m *graceful.Manager, cfg *config.Config, db *store.Store) {
	if !cfg.GrantPurgeEnabled || cfg.GrantPurgeRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.GrantPurgeInterval)
		defer ticker.Stop()

		purge := func() {
			if deleted, err := db.PurgeRevokedGrants(ctx, cfg.GrantPurgeRetention); err != nil {
				log.Printf("Failed to purge revoked grants: %v", err)
			} else if deleted > 0 {
				log.Printf("Purged %d revoked grants", deleted)
			}
		}

		// Run cleanup immediately on startup
		purge()

		for {
			select {
			case <-ticker.C:
				purge()
			case <-ctx.Done():
				return nil
			}
		}
	})
}
