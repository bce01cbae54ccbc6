package retry

import (
	"context"
	"fmt"
	"time"
)

// Default retry configuration
const (
	defaultMaxRetries         = 3
	defaultInitialRetryDelay  = 250 * time.Millisecond
	defaultMaxRetryDelay      = 2 * time.Second
	defaultRetryDelayMultiple = 2.0
)

// Retryer runs operations with automatic retry using exponential backoff
type Retryer struct {
	maxRetries         int
	initialRetryDelay  time.Duration
	maxRetryDelay      time.Duration
	retryDelayMultiple float64
	retryableChecker   RetryableChecker
}

// RetryableChecker determines if an error should trigger a retry
type RetryableChecker func(err error) bool

// Option configures a Retryer
type Option func(*Retryer)

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(r *Retryer) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithInitialRetryDelay sets the initial delay before the first retry
func WithInitialRetryDelay(d time.Duration) Option {
	return func(r *Retryer) {
		if d > 0 {
			r.initialRetryDelay = d
		}
	}
}

// WithMaxRetryDelay sets the maximum delay between retries
func WithMaxRetryDelay(d time.Duration) Option {
	return func(r *Retryer) {
		if d > 0 {
			r.maxRetryDelay = d
		}
	}
}

// WithRetryDelayMultiple sets the exponential backoff multiplier
func WithRetryDelayMultiple(multiplier float64) Option {
	return func(r *Retryer) {
		if multiplier > 1.0 {
			r.retryDelayMultiple = multiplier
		}
	}
}

// WithRetryableChecker sets a custom function to determine retryable errors
func WithRetryableChecker(checker RetryableChecker) Option {
	return func(r *Retryer) {
		if checker != nil {
			r.retryableChecker = checker
		}
	}
}

// New creates a new Retryer with the given options
func New(opts ...Option) *Retryer {
	r := &Retryer{
		maxRetries:         defaultMaxRetries,
		initialRetryDelay:  defaultInitialRetryDelay,
		maxRetryDelay:      defaultMaxRetryDelay,
		retryDelayMultiple: defaultRetryDelayMultiple,
		retryableChecker:   DefaultRetryableChecker,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DefaultRetryableChecker retries every error. Callers with protocol
// errors in the mix (decisions that must not be replayed) install their
// own checker.
func DefaultRetryableChecker(err error) bool {
	return err != nil
}

// Do executes op with automatic retry using exponential backoff. The
// context is honored between attempts: cancellation during a backoff
// wait aborts immediately with the last error attached.
func (r *Retryer) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	delay := r.initialRetryDelay

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			// Wait before retry (exponential backoff)
			select {
			case <-ctx.Done():
				if lastErr != nil {
					return fmt.Errorf(
						"context cancelled after %d attempts: %w",
						attempt,
						lastErr,
					)
				}
				return ctx.Err()
			case <-time.After(delay):
				// Calculate next delay with exponential backoff
				delay = time.Duration(float64(delay) * r.retryDelayMultiple)
				if delay > r.maxRetryDelay {
					delay = r.maxRetryDelay
				}
			}
		}

		lastErr = op(ctx)
		if !r.retryableChecker(lastErr) {
			// Success or non-retryable error
			return lastErr
		}
	}

	// All retries exhausted
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}
