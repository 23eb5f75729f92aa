package services

import (
	"context"
	"time"
)

// CacheEntry wraps a cached payload with its write time in epoch milliseconds.
type CacheEntry[T any] struct {
	Value     T     `json:"value"`
	Timestamp int64 `json:"timestamp"`
}

// TTLStore layers per-entry expiration over a namespaced blob in the cache
// medium. Each namespace holds one JSON map of key to CacheEntry and owns its
// TTL; entries past the TTL are treated as absent and dropped on read. A blob
// that fails to parse clears the whole namespace rather than being partially
// trusted. Persistence failures are swallowed: the cache is an optimization,
// never a correctness dependency.
type TTLStore[T any] struct {
	medium Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewTTLStore[T any](medium Cache, ttl time.Duration) *TTLStore[T] {
	return &TTLStore[T]{medium: medium, ttl: ttl, now: time.Now}
}

// Load returns the fresh entries under namespace. Stale or unparsable state
// never reaches the caller.
func (s *TTLStore[T]) Load(ctx context.Context, namespace string) map[string]CacheEntry[T] {
	out := make(map[string]CacheEntry[T])
	if s.medium == nil {
		return out
	}
	b, ok := s.medium.Get(ctx, namespace)
	if !ok {
		return out
	}
	var raw map[string]CacheEntry[T]
	if err := UnmarshalCache(b, &raw); err != nil {
		_ = s.medium.Del(ctx, namespace)
		return out
	}
	cutoff := s.now().UnixMilli() - s.ttl.Milliseconds()
	for key, entry := range raw {
		if entry.Timestamp <= cutoff {
			continue
		}
		out[key] = entry
	}
	return out
}

// Save persists the map verbatim, timestamps included.
func (s *TTLStore[T]) Save(ctx context.Context, namespace string, entries map[string]CacheEntry[T]) {
	if s.medium == nil {
		return
	}
	b, err := MarshalCache(entries)
	if err != nil {
		return
	}
	_ = s.medium.Set(ctx, namespace, b, s.ttl)
}

// Entry stamps a value with the store's current time.
func (s *TTLStore[T]) Entry(value T) CacheEntry[T] {
	return CacheEntry[T]{Value: value, Timestamp: s.now().UnixMilli()}
}
