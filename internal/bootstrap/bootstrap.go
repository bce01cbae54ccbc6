package bootstrap

import (
	"log"
	"net/http"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/handlers"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/services"
	"github.com/sabnocksid/lms-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	RedisClient     *redis.Client

	// Services
	GrantService *services.GrantService
	AssetService *services.AssetService

	// HTTP
	GateHandler *handlers.GateHandler
	Router      *gin.Engine
	Server      *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, and Redis
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	app.RedisClient, err = initializeRedisClient(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up the grant and asset services
func (app *Application) initializeBusinessLayer() error {
	var err error
	app.GrantService, app.AssetService, err = initializeServices(
		app.Config,
		app.DB,
		app.RedisClient,
		app.MetricsRecorder,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.GateHandler = handlers.NewGateHandler(
		app.GrantService,
		app.AssetService,
		app.Config,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.GateHandler,
		app.MetricsRecorder,
		app.RedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}
