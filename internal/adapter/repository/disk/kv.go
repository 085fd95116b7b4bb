// Package disk provides file-backed repository implementations.
// Values live as individual files under a directory, surviving restarts the
// way browser local storage survives page reloads.
package disk

import (
	"encoding/base32"
	"os"
	"path/filepath"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// KeyValueStore implements ports.KeyValueStore on top of a directory.
// Keys are encoded to stay filesystem-safe regardless of their content.
//
// Thread-safe: all operations protected by sync.RWMutex; no cross-process
// locking is attempted.
type KeyValueStore struct {
	dir string
	mu  sync.RWMutex
}

// NewKeyValueStore creates a store rooted at dir, creating it if needed.
func NewKeyValueStore(dir string) (*KeyValueStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewRepositoryError("init", "kv", "cannot create storage directory", err)
	}
	return &KeyValueStore{dir: dir}, nil
}

// Get retrieves the value for a key.
func (s *KeyValueStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value. The write goes through a temp file and rename so a
// crash never leaves a half-written entry behind.
func (s *KeyValueStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, "kv-*")
	if err != nil {
		return domain.NewRepositoryError("save", "kv", "cannot create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.NewRepositoryError("save", "kv", "cannot write value", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewRepositoryError("save", "kv", "cannot close temp file", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewRepositoryError("save", "kv", "cannot commit value", err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *KeyValueStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = os.Remove(s.path(key))
}

func (s *KeyValueStore) path(key string) string {
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(key))
	return filepath.Join(s.dir, encoded+".json")
}

// Verify interface implementation at compile time.
var _ ports.KeyValueStore = (*KeyValueStore)(nil)
