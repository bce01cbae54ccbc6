package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sabnocksid/lms-backend/internal/models"

	"gorm.io/gorm"
)

// Access Grant operations, all keyed by (identity_id, lesson_id).

// GetOrCreateGrant attempts to persist candidate as the grant for its
// (identity, lesson) pair. If another caller already created one, the
// stored row is returned unchanged and candidate's secret is discarded.
// The insert goes first so concurrent creators are serialized by the
// unique index, never by a check-then-insert race. The returned bool is
// true when candidate won the insert.
func (s *Store) GetOrCreateGrant(
	ctx context.Context,
	candidate *models.AccessGrant,
) (*models.AccessGrant, bool, error) {
	err := s.db.WithContext(ctx).Create(candidate).Error
	if err == nil {
		return candidate, true, nil
	}

	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("failed to create grant: %w", err)
	}

	// Lost the race: read back the winner's row.
	existing, err := s.GetGrant(ctx, candidate.IdentityID, candidate.LessonID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetGrant retrieves the grant for an (identity, lesson) pair.
func (s *Store) GetGrant(
	ctx context.Context,
	identityID string,
	lessonID int64,
) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	err := s.db.WithContext(ctx).
		Where("identity_id = ? AND lesson_id = ?", identityID, lessonID).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// GetGrantByID retrieves a grant by primary key.
func (s *Store) GetGrantByID(ctx context.Context, id int64) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	if err := s.db.WithContext(ctx).First(&grant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// CompareAndTransition applies updates to a grant only if its stored state
// still equals expectedState. A single conditional UPDATE carries the
// compare-and-swap; 0 rows affected means the state moved underneath the
// caller and ErrStateConflict is returned.
func (s *Store) CompareAndTransition(
	ctx context.Context,
	grantID int64,
	expectedState, newState string,
	updates map[string]any,
) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["state"] = newState

	res := s.db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("id = ? AND state = ?", grantID, expectedState).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// RevokeGrant forces a grant into the revoked state regardless of its
// current state. Idempotent: revoking a revoked grant is a no-op.
func (s *Store) RevokeGrant(ctx context.Context, grantID int64) error {
	return s.db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("id = ?", grantID).
		Update("state", models.GrantStateRevoked).Error
}

// IncrementFailedAttempts bumps the mismatch counter atomically and
// returns the new value. The increment happens in the database, not as a
// read-modify-write, so concurrent mismatches never undercount. Only
// issued grants are counted; if the grant left the issued state the call
// returns ErrStateConflict.
func (s *Store) IncrementFailedAttempts(ctx context.Context, grantID int64) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&models.AccessGrant{}).
		Where("id = ? AND state = ?", grantID, models.GrantStateIssued).
		Update("failed_attempts", gorm.Expr("failed_attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrStateConflict
	}

	grant, err := s.GetGrantByID(ctx, grantID)
	if err != nil {
		return 0, err
	}
	return grant.FailedAttempts, nil
}

// PurgeRevokedGrants deletes revoked grants older than the retention
// window. Revocation is terminal, so purged rows can never transition.
func (s *Store) PurgeRevokedGrants(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", models.GrantStateRevoked, cutoff).
		Delete(&models.AccessGrant{})
	return res.RowsAffected, res.Error
}
