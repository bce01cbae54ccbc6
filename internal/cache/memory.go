package cache

import (
	"context"
	"sync"
	"time"
)

type cacheItem[T any] struct {
	value     T
	expiresAt time.Time
}

// Compile-time interface check.
var _ Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache implements Cache with in-memory storage.
// Uses lazy expiration (checks expiry on Get).
// Suitable for single-instance deployments.
type MemoryCache[T any] struct {
	mu    sync.RWMutex
	items map[string]cacheItem[T]
}

// NewMemoryCache creates a new memory cache instance.
func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		items: make(map[string]cacheItem[T]),
	}
}

// Get retrieves a value from cache.
func (m *MemoryCache[T]) Get(ctx context.Context, key string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.items[key]
	if !exists {
		var zero T
		return zero, ErrCacheMiss
	}

	// Lazy expiration check
	if time.Now().After(item.expiresAt) {
		var zero T
		return zero, ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a value in cache with TTL.
func (m *MemoryCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = cacheItem[T]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key from cache.
func (m *MemoryCache[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Close cleans up resources.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]cacheItem[T])
	return nil
}

// Health checks if the cache is healthy (always true for memory cache).
func (m *MemoryCache[T]) Health(ctx context.Context) error {
	return nil
}

type counterItem struct {
	count     int64
	expiresAt time.Time
}

// Compile-time interface check.
var _ Counter = (*MemoryCounter)(nil)

// MemoryCounter implements Counter with in-memory storage. The window
// starts on the first increment of a key and the count resets after it
// elapses, mirroring Redis INCR + EXPIRE NX semantics.
type MemoryCounter struct {
	mu    sync.Mutex
	items map[string]counterItem
}

// NewMemoryCounter creates a new memory counter instance.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{items: make(map[string]counterItem)}
}

// Increment adds one to the counter and returns the new value.
func (m *MemoryCounter) Increment(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	item, exists := m.items[key]
	if !exists || now.After(item.expiresAt) {
		item = counterItem{count: 0, expiresAt: now.Add(window)}
	}
	item.count++
	m.items[key] = item

	return item.count, nil
}

// Reset clears the counter for a key.
func (m *MemoryCounter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Close cleans up resources.
func (m *MemoryCounter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]counterItem)
	return nil
}

// Health checks if the counter is healthy (always true for memory).
func (m *MemoryCounter) Health(ctx context.Context) error {
	return nil
}
