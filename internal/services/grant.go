package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/models"
	"github.com/sabnocksid/lms-backend/internal/secret"
	"github.com/sabnocksid/lms-backend/internal/store"
)

// casRetryLimit bounds the reload-and-retry rounds when a state
// transition races another writer. Conflicts resolve on reload (the
// grant shows its terminal state), so the bound is rarely reached.
const casRetryLimit = 3

// GrantService runs the progressive disclosure protocol: it issues the
// partial key, verifies proof of possession, and revokes grants.
type GrantService struct {
	store   *store.Store
	config  *config.Config
	limiter *ProofLimiter
	metrics metrics.Recorder
}

func NewGrantService(
	s *store.Store,
	cfg *config.Config,
	limiter *ProofLimiter,
	m metrics.Recorder,
) *GrantService {
	return &GrantService{store: s, config: cfg, limiter: limiter, metrics: m}
}

// RequestPartial returns the leading fraction of the grant secret for
// (identity, lesson), creating the grant on first call. Idempotent: the
// same pair always receives the byte-identical partial key, before and
// after verification, because the secret is generated exactly once and
// the split is deterministic. Only revocation closes the door.
func (s *GrantService) RequestPartial(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
) (string, error) {
	sec, err := secret.Generate(s.config.SecretLength)
	if err != nil {
		s.metrics.RecordPartialKeyRequest("error")
		return "", err
	}

	candidate := &models.AccessGrant{
		IdentityID: identity.ID,
		LessonID:   lessonID,
		Secret:     sec,
		State:      models.GrantStateIssued,
	}

	grant, created, err := s.store.GetOrCreateGrant(ctx, candidate)
	if err != nil {
		s.metrics.RecordPartialKeyRequest("error")
		return "", err
	}

	if grant.IsRevoked() {
		s.metrics.RecordPartialKeyRequest("revoked")
		return "", ErrGrantRevoked
	}

	partial, _, err := secret.Split(grant.Secret, s.config.DisclosureFraction)
	if err != nil {
		s.metrics.RecordPartialKeyRequest("error")
		return "", err
	}

	if created {
		s.metrics.RecordPartialKeyRequest("created")
	} else {
		s.metrics.RecordPartialKeyRequest("replayed")
	}

	return base64.StdEncoding.EncodeToString(partial), nil
}

// PartialLength returns how many bytes of the secret are disclosed.
func (s *GrantService) PartialLength() int {
	n := int(float64(s.config.SecretLength) * s.config.DisclosureFraction)
	if n == 0 {
		n = 1
	}
	if n >= s.config.SecretLength {
		n = s.config.SecretLength - 1
	}
	return n
}

// SubmitProof verifies that the caller possesses the disclosed partial
// key. The comparison is constant time. A matching proof flips the grant
// to verified via compare-and-swap so a racing revocation always wins;
// verifying an already-verified grant is a successful no-op that leaves
// verified_at untouched. A mismatch increments failed_attempts atomically
// and consults the lockout limiter.
func (s *GrantService) SubmitProof(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
	claimedPartial string,
) (bool, error) {
	start := time.Now()

	claimed, err := base64.StdEncoding.DecodeString(claimedPartial)
	if err != nil {
		return false, ErrInvalidPartial
	}

	for attempt := 0; attempt < casRetryLimit; attempt++ {
		grant, err := s.store.GetGrant(ctx, identity.ID, lessonID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				s.metrics.RecordProofSubmission("not_found", time.Since(start))
				return false, ErrGrantNotFound
			}
			s.metrics.RecordProofSubmission("error", time.Since(start))
			return false, err
		}

		if grant.IsRevoked() {
			s.metrics.RecordProofSubmission("revoked", time.Since(start))
			return false, ErrGrantRevoked
		}

		expected, _, err := secret.Split(grant.Secret, s.config.DisclosureFraction)
		if err != nil {
			s.metrics.RecordProofSubmission("error", time.Since(start))
			return false, err
		}
		match := secret.Equal(claimed, expected)

		if grant.IsVerified() {
			// Idempotent success; a wrong proof against a verified grant
			// changes nothing and is not counted.
			if match {
				s.metrics.RecordProofSubmission("already_verified", time.Since(start))
				return true, nil
			}
			s.metrics.RecordProofSubmission("mismatch", time.Since(start))
			return false, ErrProofMismatch
		}

		if match {
			now := time.Now().UTC()
			err := s.store.CompareAndTransition(
				ctx,
				grant.ID,
				models.GrantStateIssued,
				models.GrantStateVerified,
				map[string]any{"verified_at": &now},
			)
			if errors.Is(err, store.ErrStateConflict) {
				// Someone moved the state under us; reload decides.
				continue
			}
			if err != nil {
				s.metrics.RecordProofSubmission("error", time.Since(start))
				return false, err
			}

			_ = s.limiter.Reset(ctx, identity.ID, lessonID)
			s.metrics.RecordProofSubmission("verified", time.Since(start))
			return true, nil
		}

		count, err := s.store.IncrementFailedAttempts(ctx, grant.ID)
		if errors.Is(err, store.ErrStateConflict) {
			continue
		}
		if err != nil {
			s.metrics.RecordProofSubmission("error", time.Since(start))
			return false, err
		}

		allowed, limitErr := s.limiter.CheckAndIncrement(ctx, identity.ID, lessonID)
		if limitErr == nil && (!allowed || count > s.config.ProofFailureThreshold) {
			s.metrics.RecordProofSubmission("rate_limited", time.Since(start))
			return false, ErrRateLimited
		}
		if limitErr != nil && count > s.config.ProofFailureThreshold {
			s.metrics.RecordProofSubmission("rate_limited", time.Since(start))
			return false, ErrRateLimited
		}

		s.metrics.RecordProofSubmission("mismatch", time.Since(start))
		return false, ErrProofMismatch
	}

	return false, fmt.Errorf("proof verification did not settle after %d attempts", casRetryLimit)
}

// RevocationTarget names the identity whose grant an admin is
// revoking. Admins act on other identities' grants, so the target is
// not the authenticated caller.
func RevocationTarget(identityID string) models.Identity {
	return models.Identity{ID: identityID}
}

// Revoke forces a grant into the terminal revoked state. Idempotent.
func (s *GrantService) Revoke(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
) error {
	grant, err := s.store.GetGrant(ctx, identity.ID, lessonID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrGrantNotFound
		}
		return err
	}

	if grant.IsRevoked() {
		return nil
	}

	if err := s.store.RevokeGrant(ctx, grant.ID); err != nil {
		return err
	}
	s.metrics.RecordGrantRevoked()
	return nil
}
