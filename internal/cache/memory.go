// Package cache provides the run-scoped in-memory cache used by the geodata
// adapter to avoid re-querying tiles within one process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-memory TTL cache.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a cache with the given default TTL and cleanup interval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a cached value.
func (m *Memory) Get(key string) ([]byte, bool) {
	if val, found := m.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value under key for ttl.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

// Key derives a stable cache key from an arbitrary identifier.
func Key(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "macadam:v1:" + hex.EncodeToString(hash[:])
}
