package cryptostage

import (
	"fmt"
	"sync"
)

// KeyStore looks up key material by key_id. Key material is never logged —
// callers must not format a KeyStore's contents into log fields.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// NewKeyStore returns an empty KeyStore.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string][]byte)}
}

// Put registers key material under keyID. The caller's slice is copied so
// the store is not aliased to caller-owned memory.
func (s *KeyStore) Put(keyID string, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(key))
	copy(cp, key)
	s.keys[keyID] = cp
}

// Get looks up the key material for keyID.
func (s *KeyStore) Get(keyID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("cryptostage: key_id %q not found", keyID)
	}

	return key, nil
}
