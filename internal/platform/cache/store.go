package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/riskibarqy/continental-cup/internal/platform/resilience"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process TTL cache. A zero TTL keeps entries until they are invalidated.
//
// Every key carries a generation that Invalidate bumps. A load that started before an
// invalidation is never written back and is never shared with callers arriving after it.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	gens    map[string]uint64
	ttl     time.Duration
	flight  resilience.Flight[V]
	now     func() time.Time
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.expiry()}
	s.mu.Unlock()
}

func (s *Store[V]) Invalidate(_ context.Context, keys ...string) {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
		s.gens[key]++
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or loads it once for all concurrent callers of the key.
// Load errors are not cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if key == "" {
		return load(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	gen := s.generation(key)
	value, _, err := s.flight.Do(key+"@"+strconv.FormatUint(gen, 10), func() (V, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return loaded, err
		}
		s.setIfGeneration(key, loaded, gen)
		return loaded, nil
	})
	return value, err
}

func (s *Store[V]) generation(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[key]
}

// setIfGeneration drops the value when the key was invalidated after the load began.
func (s *Store[V]) setIfGeneration(key string, value V, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.entries[key] = entry[V]{value: value, expiresAt: s.expiry()}
	return true
}

func (s *Store[V]) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}
