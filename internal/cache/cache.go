// Package cache provides a time-bounded snapshot cache shared across
// concurrent requests.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Kind of data held by a cache entry.
type Kind string

const (
	KindMarket     Kind = "market"
	KindFinancials Kind = "financials"
)

// Key identifies a cache entry.
type Key struct {
	Ticker string
	Kind   Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Kind, k.Ticker)
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Store TTL cache with at most one concurrent fetch per key. Failed fetches
// are not stored, so the next caller retries immediately.
type Store[V any] struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[Key]entry[V]
	group   singleflight.Group
}

// New creates a Store with the given TTL.
func New[V any](ttl time.Duration, logger *zap.Logger) *Store[V] {
	return &Store[V]{
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[Key]entry[V]),
	}
}

// GetOrFetch returns the cached value for key when it is younger than the
// TTL. On a miss or expiry it invokes fetch; concurrent callers for the same
// key join the in-flight fetch instead of triggering duplicates. The value
// is stored only when fetch succeeds.
func (s *Store[V]) GetOrFetch(ctx context.Context, key Key, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	res, err, shared := s.group.Do(key.String(), func() (any, error) {
		// a concurrent fetch may have populated the entry while this
		// caller was queued behind the flight lock
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	if shared {
		s.logger.Debug("joined in-flight fetch", zap.String("key", key.String()))
	}
	return res.(V), nil
}

// Purge removes expired entries and returns how many were evicted. Eviction
// never triggers a refetch; the next access for an evicted key fetches anew.
func (s *Store[V]) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.insertedAt) > s.ttl {
			delete(s.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries, including any not yet purged expired
// ones.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[V]) lookup(key Key) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.insertedAt) > s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) put(key Key, v V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: v, insertedAt: s.now()}
	s.mu.Unlock()
}
