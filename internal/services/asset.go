package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sabnocksid/lms-backend/internal/cache"
	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/models"
	"github.com/sabnocksid/lms-backend/internal/retry"
	"github.com/sabnocksid/lms-backend/internal/signer"
	"github.com/sabnocksid/lms-backend/internal/store"
)

// assetKeyCacheTTL bounds how long a resolved object key may be served
// from cache; lesson media is re-keyed rarely.
const assetKeyCacheTTL = 5 * time.Minute

// LessonResolver supplies lesson asset metadata. The store implements
// it; tests substitute fakes.
type LessonResolver interface {
	ResolveAssetKey(ctx context.Context, lessonID int64, kind string) (string, error)
}

// AssetURL is the terminal deliverable of the gate: a signed link and
// its expiry. It is never persisted; every call re-signs.
type AssetURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AssetService converts a verified grant into a time-limited signed URL.
type AssetService struct {
	store   *store.Store
	lessons LessonResolver
	signer  signer.Signer
	keys    cache.Cache[string]
	config  *config.Config
	metrics metrics.Recorder
	retryer *retry.Retryer
}

func NewAssetService(
	s *store.Store,
	lessons LessonResolver,
	sgn signer.Signer,
	keyCache cache.Cache[string],
	cfg *config.Config,
	m metrics.Recorder,
) *AssetService {
	return &AssetService{
		store:   s,
		lessons: lessons,
		signer:  sgn,
		keys:    keyCache,
		config:  cfg,
		metrics: m,
		retryer: retry.New(
			retry.WithMaxRetries(cfg.PresignMaxRetries),
		),
	}
}

// GetAssetURL issues a presigned URL for a lesson asset. The grant must
// be verified; revocation dominates every other state. The presign call
// has no side effects on the grant, so caller cancellation mid-flight is
// always safe.
func (s *AssetService) GetAssetURL(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
	kind string,
) (*AssetURL, error) {
	grant, err := s.store.GetGrant(ctx, identity.ID, lessonID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}

	switch {
	case grant.IsRevoked():
		return nil, ErrGrantRevoked
	case !grant.IsVerified():
		return nil, ErrNotAuthorized
	}

	key, err := cache.GetWithFetch(
		ctx,
		s.keys,
		fmt.Sprintf("asset:%d:%s", lessonID, kind),
		assetKeyCacheTTL,
		func(ctx context.Context, _ string) (string, error) {
			return s.lessons.ResolveAssetKey(ctx, lessonID, kind)
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) || errors.Is(err, store.ErrNoAsset) {
			return nil, ErrAssetMissing
		}
		return nil, err
	}

	var signed string
	err = s.retryer.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.PresignTimeout)
		defer cancel()

		start := time.Now()
		url, err := s.signer.Presign(attemptCtx, key, s.config.SignedURLExpiry)
		s.metrics.RecordPresign(err == nil, time.Since(start))
		if err != nil {
			return err
		}
		signed = url
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.metrics.RecordAssetURLIssued(kind)
	return &AssetURL{
		URL:       signed,
		ExpiresAt: time.Now().Add(s.config.SignedURLExpiry),
	}, nil
}
