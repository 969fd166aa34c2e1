package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStorage is an in-process Storage. Expired entries are removed lazily.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]memoryItem)}
}

// Get retrieves the raw value for key.
func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	item, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if item.expired(time.Now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expired(time.Now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores value with TTL. A non-positive TTL stores without expiry.
func (s *MemoryStorage) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = item
	s.mu.Unlock()
	return nil
}

// SetNX stores value only if key is absent or expired.
func (s *MemoryStorage) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.entries[key]; ok && !item.expired(time.Now()) {
		return false, nil
	}
	s.entries[key] = memoryItem{value: append([]byte(nil), value...)}
	return true, nil
}

// Delete removes keys. Missing keys are ignored.
func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil
}

// Incr atomically increments the integer stored at key, starting from 0.
func (s *MemoryStorage) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if item, ok := s.entries[key]; ok && !item.expired(time.Now()) {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %q: value is not an integer", key)
		}
		n = parsed
	}
	n++
	s.entries[key] = memoryItem{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Count returns the number of live keys starting with prefix.
func (s *MemoryStorage) Count(_ context.Context, prefix string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var n int64
	for key, item := range s.entries {
		if strings.HasPrefix(key, prefix) && !item.expired(now) {
			n++
		}
	}
	return n, nil
}

// Kind identifies the backend in stats and metrics.
func (s *MemoryStorage) Kind() string {
	return "memory"
}

var _ Storage = (*MemoryStorage)(nil)
