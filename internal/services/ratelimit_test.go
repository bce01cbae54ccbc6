package services

import (
	"context"
	"testing"
	"time"

	"github.com/sabnocksid/lms-backend/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofLimiter_AllowsUpToThreshold(t *testing.T) {
	limiter := NewProofLimiter(cache.NewMemoryCounter(), 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.CheckAndIncrement(ctx, "42", 7)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should pass", i+1)
	}

	allowed, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestProofLimiter_IsolatesPairs(t *testing.T) {
	limiter := NewProofLimiter(cache.NewMemoryCounter(), 1, time.Minute)
	ctx := context.Background()

	_, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	allowed, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Same identity, different lesson
	allowed, err = limiter.CheckAndIncrement(ctx, "42", 8)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Different identity, same lesson
	allowed, err = limiter.CheckAndIncrement(ctx, "43", 7)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestProofLimiter_WindowExpires(t *testing.T) {
	limiter := NewProofLimiter(cache.NewMemoryCounter(), 1, 30*time.Millisecond)
	ctx := context.Background()

	_, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	allowed, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	require.False(t, allowed)

	time.Sleep(50 * time.Millisecond)

	allowed, err = limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestProofLimiter_Reset(t *testing.T) {
	limiter := NewProofLimiter(cache.NewMemoryCounter(), 1, time.Minute)
	ctx := context.Background()

	_, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	allowed, err := limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "42", 7))

	allowed, err = limiter.CheckAndIncrement(ctx, "42", 7)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestProofLimiter_Window(t *testing.T) {
	limiter := NewProofLimiter(cache.NewMemoryCounter(), 1, 15*time.Minute)
	assert.Equal(t, 15*time.Minute, limiter.Window())
}
