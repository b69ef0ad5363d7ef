package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// RS256Signer signs with an RSA private key using SHA-256.
type RS256Signer struct {
	kid string
	key *rsa.PrivateKey
}

func newRS256Signer(kid string, pemKey []byte) (*RS256Signer, error) {
	key, err := cryptox.ParseRSAPrivateKey(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	if key.N.BitLen() < cryptox.MinRSABits {
		return nil, fmt.Errorf("jwtx: RSA key is %d bits, need at least %d", key.N.BitLen(), cryptox.MinRSABits)
	}
	return &RS256Signer{kid: kid, key: key}, nil
}

func (s *RS256Signer) Alg() string { return AlgorithmRS256 }
func (s *RS256Signer) KID() string { return s.kid }

func (s *RS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *RS256Signer) VerificationKey() any { return &s.key.PublicKey }

// PublicJWK returns the JWK published on the JWKS endpoint.
func (s *RS256Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, "sig", AlgorithmRS256, &s.key.PublicKey)
}

// PublicPEM returns the PEM served by the token_key endpoint.
func (s *RS256Signer) PublicPEM() (string, error) {
	return cryptox.PublicKeyPEM(&s.key.PublicKey)
}

func (s *RS256Signer) Validate() error {
	if s.key == nil {
		return errors.New("jwtx: nil RSA key")
	}
	return s.key.Validate()
}
