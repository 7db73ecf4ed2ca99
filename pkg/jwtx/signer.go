package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// Signer signs client tokens with the current key of a KeySet.
type Signer struct {
	keys *KeySet
}

// NewSigner creates an HS256 signer.
func NewSigner(keys *KeySet) *Signer {
	return &Signer{keys: keys}
}

func (s *Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns claims into a compact JWT carrying the signing kid.
func (s *Signer) Sign(claims Claims) (string, error) {
	kid, key, err := s.keys.Current()
	if err != nil {
		return "", err
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = kid
	return t.SignedString(key)
}
