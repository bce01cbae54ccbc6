package bootstrap

import (
	"fmt"
	"log"

	"github.com/sabnocksid/lms-backend/internal/cache"
	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/services"
	"github.com/sabnocksid/lms-backend/internal/signer"
	"github.com/sabnocksid/lms-backend/internal/store"

	"github.com/redis/go-redis/v9"
)

// initializeServices creates the grant and asset services with their
// supporting pieces: the proof failure counter, the object store
// signer, and the asset key cache.
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	redisClient *redis.Client,
	recorder metrics.Recorder,
) (*services.GrantService, *services.AssetService, error) {
	// Proof failure counter: Redis when available so lockouts are
	// shared across instances, in-memory otherwise.
	var counter cache.Counter
	if redisClient != nil {
		counter = cache.NewRedisCounter(redisClient, "proof_failures")
		log.Printf("Proof failure counter backed by Redis")
	} else {
		counter = cache.NewMemoryCounter()
		log.Printf("Proof failure counter in memory (single instance only)")
	}

	limiter := services.NewProofLimiter(
		counter,
		cfg.ProofFailureThreshold,
		cfg.ProofLockoutWindow,
	)

	grantService := services.NewGrantService(db, cfg, limiter, recorder)

	objectSigner, err := signer.NewMinioSigner(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize object store signer: %w", err)
	}

	assetService := services.NewAssetService(
		db,
		db,
		objectSigner,
		cache.NewMemoryCache[string](),
		cfg,
		recorder,
	)

	return grantService, assetService, nil
}
