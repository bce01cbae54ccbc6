package models

import (
	"time"
)

// Grant states. Transitions are monotonic: issued -> verified, and any
// state -> revoked (terminal).
const (
	GrantStateIssued   = "issued"
	GrantStateVerified = "verified"
	GrantStateRevoked  = "revoked"
)

// AccessGrant tracks the disclosure state of one (identity, lesson) pair.
// The secret is generated once at creation and never regenerated; the
// partial key handed to clients is always derived from it on the fly and
// never stored separately.
type AccessGrant struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	IdentityID string `gorm:"uniqueIndex:idx_grant_identity_lesson;not null"`
	LessonID   int64  `gorm:"uniqueIndex:idx_grant_identity_lesson;not null"`

	Secret []byte `gorm:"not null"` // raw grant secret; never logged or returned in full

	State          string `gorm:"not null;default:'issued';index"`
	FailedAttempts int    `gorm:"not null;default:0"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	VerifiedAt *time.Time
}

// IsIssued returns true if the grant is awaiting proof of possession.
func (g *AccessGrant) IsIssued() bool {
	return g.State == GrantStateIssued
}

// IsVerified returns true if proof of possession has been accepted.
func (g *AccessGrant) IsVerified() bool {
	return g.State == GrantStateVerified
}

// IsRevoked returns true if the grant has been administratively revoked.
func (g *AccessGrant) IsRevoked() bool {
	return g.State == GrantStateRevoked
}
