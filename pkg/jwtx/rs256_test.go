package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "oauth2d-test"

func newRSAPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func sampleClaims(now time.Time, ttl time.Duration) jwtx.Claims {
	return jwtx.NewClaims(jwtx.ClaimsParams{
		Issuer:      exampleIssuer,
		Subject:     "roy",
		UserName:    "roy",
		ClientID:    "trusted",
		Scope:       []string{"read"},
		Authorities: []string{"ROLE_USER"},
		TTL:         ttl,
		Now:         now,
	})
}

func TestRS256SignAndVerify(t *testing.T) {
	signer, err := jwtx.NewSignerRS256("test-key", newRSAPEM(t))
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, jwtx.AlgorithmRS256, signer.Alg())

	now := time.Now()
	claims := sampleClaims(now, 2*time.Minute)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: exampleIssuer})
	parsed, err := verifier.Verify(token)
	require.NoError(t, err)

	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.UserName, parsed.UserName)
	require.Equal(t, claims.ClientID, parsed.ClientID)
	require.Equal(t, claims.Scope, parsed.Scope)
	require.Equal(t, claims.Authorities, parsed.Authorities)
	require.Equal(t, claims.ID, parsed.ID)
	require.Equal(t, claims.ExpiresAt.Unix(), parsed.ExpiresAt.Unix())
	require.Equal(t, jwtx.KindAccess, parsed.Kind())
}

func TestRS256PublicMaterial(t *testing.T) {
	signer, err := jwtx.NewSignerRS256("pub-key", newRSAPEM(t))
	require.NoError(t, err)

	pub, ok := signer.(jwtx.Publisher)
	require.True(t, ok, "RS256 signer should publish its key")

	jwk := pub.PublicJWK()
	require.Equal(t, "RSA", jwk.Kty)
	require.Equal(t, "pub-key", jwk.Kid)
	require.Equal(t, "sig", jwk.Use)

	rsaPub, err := jwk.RSAPublicKey()
	require.NoError(t, err)
	require.True(t, rsaPub.Equal(signer.VerificationKey()))

	pemStr, err := pub.PublicPEM()
	require.NoError(t, err)
	require.Contains(t, pemStr, "BEGIN PUBLIC KEY")
}

func TestRS256RejectsSmallKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	small := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	_, err = jwtx.NewSignerRS256("small", small)
	require.Error(t, err)
}

func TestVerifyFailures(t *testing.T) {
	signer, err := jwtx.NewSignerRS256("k1", newRSAPEM(t))
	require.NoError(t, err)
	other, err := jwtx.NewSignerRS256("k1", newRSAPEM(t))
	require.NoError(t, err)
	unknown, err := jwtx.NewSignerRS256("k2", newRSAPEM(t))
	require.NoError(t, err)
	hmac, err := jwtx.NewSignerHS256("k1", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	now := time.Unix(1_700_000_000, 0)
	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{
		Algorithm: jwtx.AlgorithmRS256,
		Issuer:    exampleIssuer,
		Now:       func() time.Time { return now },
	})

	sign := func(s jwtx.Signer, c jwtx.Claims) string {
		tok, err := s.Sign(c)
		require.NoError(t, err)
		return tok
	}

	wrongIssuer := sampleClaims(now, time.Minute)
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name   string
		token  string
		err    error
		reason string
	}{
		{"garbage", "invalid-token", jwtx.ErrMalformed, "malformed"},
		{"bad base64", "a.b.c", jwtx.ErrMalformed, "malformed"},
		{"forged signature", sign(other, sampleClaims(now, time.Minute)), jwtx.ErrInvalidSig, "signature"},
		{"unknown kid", sign(unknown, sampleClaims(now, time.Minute)), jwtx.ErrUnknownKID, "unknown_kid"},
		{"expired", sign(signer, sampleClaims(now.Add(-time.Hour), time.Minute)), jwtx.ErrExpired, "expired"},
		{"wrong issuer", sign(signer, wrongIssuer), jwtx.ErrIssuer, "issuer"},
		{"wrong alg", sign(hmac, sampleClaims(now, time.Minute)), jwtx.ErrInvalidSig, "signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.reason, jwtx.Reason(err))
		})
	}
}

func TestVerifyExpiredEvenWithValidSignature(t *testing.T) {
	signer, err := jwtx.NewSignerRS256("k1", newRSAPEM(t))
	require.NoError(t, err)
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	issued := time.Unix(1_700_000_000, 0)
	token, err := signer.Sign(sampleClaims(issued, time.Minute))
	require.NoError(t, err)

	clock := issued.Add(30 * time.Second)
	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{
		Algorithm: jwtx.AlgorithmRS256,
		Now:       func() time.Time { return clock },
	})

	_, err = verifier.Verify(token)
	require.NoError(t, err)

	clock = issued.Add(61 * time.Second)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
