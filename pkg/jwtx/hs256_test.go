package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("an-hs256-secret-that-is-32-bytes!")

func TestHS256SignAndVerify(t *testing.T) {
	signer, err := jwtx.NewSignerHS256("hmac-1", testSecret)
	require.NoError(t, err)
	require.Equal(t, jwtx.AlgorithmHS256, signer.Alg())

	_, publishes := signer.(jwtx.Publisher)
	require.False(t, publishes, "HMAC secrets must never be published")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))
	require.Empty(t, keyset.PublicJWKS(time.Now()).Keys)

	claims := sampleClaims(time.Now(), time.Minute)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{Algorithm: jwtx.AlgorithmHS256, Issuer: exampleIssuer})
	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, claims.Scope, parsed.Scope)
}

func TestHS256RejectsShortSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256("short", []byte("too-short"))
	require.Error(t, err)
}

func TestHS256WrongSecret(t *testing.T) {
	signer, err := jwtx.NewSignerHS256("hmac-1", testSecret)
	require.NoError(t, err)
	imposter, err := jwtx.NewSignerHS256("hmac-1", []byte("another-secret-of-at-least-32-bytes"))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))
	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{Algorithm: jwtx.AlgorithmHS256})

	token, err := imposter.Sign(sampleClaims(time.Now(), time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifierRejectsRSATokenWhenConfiguredForHMAC(t *testing.T) {
	hmac, err := jwtx.NewSignerHS256("shared-kid", testSecret)
	require.NoError(t, err)
	rsaSigner, err := jwtx.NewSignerRS256("shared-kid", newRSAPEM(t))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(hmac))
	verifier := jwtx.NewVerifier(keyset, jwtx.VerifyOptions{Algorithm: jwtx.AlgorithmHS256})

	token, err := rsaSigner.Sign(sampleClaims(time.Now(), time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}
