package jwtx

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACSecretBytes is the shortest secret accepted for HS256 (RFC 7518 3.2).
const MinHMACSecretBytes = 32

// HS256Signer signs with a shared secret. Its key is never published.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHMACSecretBytes {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", MinHMACSecretBytes, len(secret))
	}
	return &HS256Signer{kid: kid, secret: slices.Clone(secret)}, nil
}

func (s *HS256Signer) Alg() string { return AlgorithmHS256 }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinHMACSecretBytes {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}
