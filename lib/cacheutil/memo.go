package cacheutil

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Registry holds a process-wide invalidation epoch. every memoized value
// produced before the epoch is treated as expired regardless of its TTL.
// construct a fresh registry per test for isolation.
type Registry struct {
	mu    sync.Mutex
	epoch time.Time
}

func NewRegistry() *Registry {
	return &Registry{}
}

// InvalidateAll moves the epoch to now, expiring every value produced
// before this call across all caches holding this registry.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch = time.Now()
}

func (r *Registry) Epoch() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// Memo memoizes a single expensive producer with a TTL. concurrent misses
// collapse into one producer invocation.
type Memo[T any] struct {
	reg      *Registry
	ttl      time.Duration
	producer func(ctx context.Context) (T, error)

	group singleflight.Group

	mu         sync.Mutex
	value      T
	producedAt time.Time
	expiresAt  time.Time
	valid      bool
}

func NewMemo[T any](reg *Registry, ttl time.Duration, producer func(ctx context.Context) (T, error)) *Memo[T] {
	return &Memo[T]{
		reg:      reg,
		ttl:      ttl,
		producer: producer,
	}
}

func (m *Memo[T]) current() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.valid {
		return zero, false
	}
	if !time.Now().Before(m.expiresAt) {
		return zero, false
	}
	if !m.producedAt.After(m.reg.Epoch()) {
		return zero, false
	}
	return m.value, true
}

func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	if value, ok := m.current(); ok {
		return value, nil
	}

	result, err, _ := m.group.Do("", func() (any, error) {
		// a concurrent caller may already have refreshed the value
		if value, ok := m.current(); ok {
			return value, nil
		}
		value, err := m.producer(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		m.mu.Lock()
		m.value = value
		m.producedAt = now
		m.expiresAt = now.Add(m.ttl)
		m.valid = true
		m.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

type keyedEntry[T any] struct {
	value      T
	producedAt time.Time
}

// Keyed is a keyed TTL cache, one independent entry per key. entries honor
// both their own TTL and the registry epoch.
type Keyed[T any] struct {
	reg   *Registry
	lru   *expirable.LRU[string, keyedEntry[T]]
	group singleflight.Group
}

func NewKeyed[T any](reg *Registry, size int, ttl time.Duration) *Keyed[T] {
	return &Keyed[T]{
		reg: reg,
		lru: expirable.NewLRU[string, keyedEntry[T]](size, nil, ttl),
	}
}

func (k *Keyed[T]) lookup(key string) (T, bool) {
	var zero T
	entry, hit := k.lru.Get(key)
	if !hit {
		return zero, false
	}
	if !entry.producedAt.After(k.reg.Epoch()) {
		k.lru.Remove(key)
		return zero, false
	}
	return entry.value, true
}

// GetOrSet returns the cached value for key or produces, stores and returns
// a new one. concurrent misses for the same key share one invocation.
func (k *Keyed[T]) GetOrSet(ctx context.Context, key string, producer func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := k.lookup(key); ok {
		return value, nil
	}

	result, err, _ := k.group.Do(key, func() (any, error) {
		if value, ok := k.lookup(key); ok {
			return value, nil
		}
		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		k.lru.Add(key, keyedEntry[T]{value: value, producedAt: time.Now()})
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Remove drops a single key.
func (k *Keyed[T]) Remove(key string) {
	k.lru.Remove(key)
}
