package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sabnocksid/lms-backend/internal/cache"
)

// ProofLimiter tracks mismatched proof submissions per (identity, lesson)
// inside a rolling window. It owns the lockout duration; the persistent
// failed_attempts counter on the grant is the lifetime record.
type ProofLimiter struct {
	counter   cache.Counter
	threshold int
	window    time.Duration
}

// NewProofLimiter creates a limiter over the given counter backend.
func NewProofLimiter(counter cache.Counter, threshold int, window time.Duration) *ProofLimiter {
	return &ProofLimiter{counter: counter, threshold: threshold, window: window}
}

func limiterKey(identityID string, lessonID int64) string {
	return fmt.Sprintf("%s:%d", identityID, lessonID)
}

// CheckAndIncrement records one failed proof and reports whether the
// caller is now throttled. A counter backend failure fails open: the
// persistent failed_attempts threshold still applies, so an attacker
// gains nothing durable from a cache outage.
func (l *ProofLimiter) CheckAndIncrement(
	ctx context.Context,
	identityID string,
	lessonID int64,
) (allowed bool, err error) {
	n, err := l.counter.Increment(ctx, limiterKey(identityID, lessonID), l.window)
	if err != nil {
		return true, err
	}
	return n <= int64(l.threshold), nil
}

// Reset clears the window for a pair, called after a successful proof.
func (l *ProofLimiter) Reset(ctx context.Context, identityID string, lessonID int64) error {
	return l.counter.Reset(ctx, limiterKey(identityID, lessonID))
}

// Window returns the lockout window, for Retry-After responses.
func (l *ProofLimiter) Window() time.Duration {
	return l.window
}
