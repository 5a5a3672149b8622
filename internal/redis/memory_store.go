// Package redis provides storage implementations for the shared key-value
// store. This file implements an in-memory store with the same interface
// as the Redis client, used for local development and unit tests.
package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cleanupInterval is the interval between expired item cleanup runs.
const cleanupInterval = time.Minute

// entry wraps a stored value with its optional expiry.
type entry struct {
	value     string
	count     int64
	expiresAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-memory implementation of Store with TTL support.
// All data is lost on restart.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]*entry
	logger      *logrus.Logger
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// NewMemoryStore creates an in-memory store with a background TTL sweeper.
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	store := &MemoryStore{
		entries:     make(map[string]*entry),
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	go store.cleanupLoop()

	logger.Info("In-memory store initialized with TTL cleanup")
	return store
}

func (m *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *MemoryStore) sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}

	if removed > 0 {
		m.logger.WithField("removed", removed).Debug("Cleaned up expired entries")
	}
}

// Close stops the background sweeper.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() { close(m.stopCleanup) })
	return nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// get returns a live entry or nil, expiring lazily. Caller holds the lock.
func (m *MemoryStore) get(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil
	}
	return e
}

// Get returns the value for key, or ErrCacheMiss if absent or expired.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.get(key)
	if e == nil {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value under key. A zero ttl stores without expiry.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Exists reports whether key is present and unexpired.
func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.get(key) != nil, nil
}

// DeleteByPrefix removes every key with the given prefix.
func (m *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// IncrWithTTL increments the counter at key under the store lock, creating
// it with the given TTL when absent. Matches the Redis script semantics.
func (m *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.get(key)
	if e == nil {
		e = &entry{count: 0}
		if ttl > 0 {
			e.expiresAt = time.Now().Add(ttl)
		}
		m.entries[key] = e
	}
	e.count++
	return e.count, nil
}
