// Package memory provides in-memory repository implementations,
// used for tests and as the session-local fallback when disk storage is
// unavailable.
package memory

import (
	"sync"

	"github.com/trackdraft/trackdraft/internal/ports"
)

// KeyValueStore implements ports.KeyValueStore with a plain map.
//
// Thread-safe: all operations protected by sync.RWMutex.
type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewKeyValueStore creates an empty in-memory key-value store.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{
		values: make(map[string][]byte),
	}
}

// Get retrieves the value for a key.
func (s *KeyValueStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Set stores a value under a key.
func (s *KeyValueStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *KeyValueStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// Len returns the number of stored keys, for tests.
func (s *KeyValueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Verify interface implementation at compile time.
var _ ports.KeyValueStore = (*KeyValueStore)(nil)
