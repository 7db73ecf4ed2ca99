package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinMasterSecretLen is the shortest master secret accepted in production.
const MinMasterSecretLen = 32

// ErrWeakMasterSecret is returned when the master secret is too short.
var ErrWeakMasterSecret = errors.New("cryptox: master secret too short")

// Purposes for DeriveKey. Each yields an independent key from one secret.
const (
	PurposeClientCookie = "arbeit/client-cookie/v1"
	PurposeSessionSeal  = "arbeit/session-seal/v1"
)

// DeriveKey expands master into a 32 byte key bound to purpose using
// HKDF-SHA256.
func DeriveKey(master []byte, purpose string) ([]byte, error) {
	if len(master) == 0 {
		return nil, ErrWeakMasterSecret
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, master, nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s: %w", purpose, err)
	}
	return key, nil
}
