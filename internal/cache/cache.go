// Package cache provides a process-wide in-memory store with per-entry TTL.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Store keeps values for a fixed TTL. Expiry is checked on read; expired
// entries are dropped lazily.
type Store[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

// New creates a store whose entries live for ttl.
func New[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the cached value when present and fresh.
func (s *Store[T]) Get(key string) (T, bool) {
	return s.GetWithin(key, s.ttl)
}

// GetWithin is Get with a tighter freshness bound than the store TTL.
func (s *Store[T]) GetWithin(key string, maxAge time.Duration) (T, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if s.now().Sub(e.storedAt) >= maxAge {
		s.mu.Lock()
		// Re-check under the write lock; a Set may have refreshed it.
		if current, still := s.entries[key]; still && s.now().Sub(current.storedAt) >= s.ttl {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value, resetting its TTL.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	s.entries[key] = entry[T]{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

// Len reports the number of entries, including not-yet-collected expired
// ones.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
