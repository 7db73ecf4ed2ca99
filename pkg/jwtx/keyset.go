package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds HMAC keys by kid. One key signs, all keys verify, so a
// secret can be rotated without logging every browser out.
type KeySet struct {
	mu      sync.RWMutex
	keys    map[string][]byte
	current string
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string][]byte)}
}

// Add registers a key. The first key added becomes the signing key unless
// SetCurrent is called.
func (k *KeySet) Add(kid string, key []byte) error {
	if kid == "" || len(key) < 32 {
		return errors.New("jwtx: hmac key needs a kid and at least 32 bytes")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[kid] = append([]byte(nil), key...)
	if k.current == "" {
		k.current = kid
	}
	return nil
}

// SetCurrent selects the signing key.
func (k *KeySet) SetCurrent(kid string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.keys[kid]; !ok {
		return ErrNoKey
	}
	k.current = kid
	return nil
}

// Get returns the key for the given kid.
func (k *KeySet) Get(kid string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrNoKey
}

// Current returns the signing kid and key.
func (k *KeySet) Current() (string, []byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.current == "" {
		return "", nil, ErrNoKey
	}
	return k.current, k.keys[k.current], nil
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}
