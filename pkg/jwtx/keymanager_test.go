package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestNewKeyManager(t *testing.T) {
	tests := []struct {
		name string
		opts jwtx.KeyManagerOptions
	}{
		{
			name: "RS256 generated",
			opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: exampleIssuer},
		},
		{
			name: "RS256 from PEM",
			opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: exampleIssuer, PrivateKeyPEM: newRSAPEM(t), KeyID: "fixed"},
		},
		{
			name: "HS256",
			opts: jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmHS256, Issuer: exampleIssuer, Secret: testSecret},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, err := jwtx.NewKeyManager(tt.opts)
			require.NoError(t, err)
			require.True(t, km.IsReady())
			require.Equal(t, tt.opts.Algorithm, km.Algorithm())
			require.Equal(t, exampleIssuer, km.Issuer())
			if tt.opts.KeyID != "" {
				require.Equal(t, tt.opts.KeyID, km.Signer().KID())
			}

			token, err := km.Sign(sampleClaims(time.Now(), time.Minute))
			require.NoError(t, err)
			claims, err := km.Verify(token)
			require.NoError(t, err)
			require.Equal(t, "roy", claims.Subject)
		})
	}
}

func TestDefaultGracePeriodCoversRefreshTokens(t *testing.T) {
	require.GreaterOrEqual(t, jwtx.DefaultGracePeriod, jwtx.DefaultRefreshTokenTTL)
}

func TestNewKeyManagerErrors(t *testing.T) {
	tests := []struct {
		name string
		opts jwtx.KeyManagerOptions
	}{
		{"missing issuer", jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256}},
		{"unsupported algorithm", jwtx.KeyManagerOptions{Algorithm: "ES256", Issuer: exampleIssuer}},
		{"HS256 without secret", jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmHS256, Issuer: exampleIssuer}},
		{"HS256 short secret", jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmHS256, Issuer: exampleIssuer, Secret: []byte("short")}},
		{"RS256 bad PEM", jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: exampleIssuer, PrivateKeyPEM: []byte("nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwtx.NewKeyManager(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestKeyManagerRotationGraceWindow(t *testing.T) {
	for _, alg := range []string{jwtx.AlgorithmRS256, jwtx.AlgorithmHS256} {
		t.Run(alg, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
			km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
				Algorithm:   alg,
				Issuer:      exampleIssuer,
				Secret:      testSecret,
				GracePeriod: time.Hour,
				Now:         clock.Now,
			})
			require.NoError(t, err)

			oldKid := km.Signer().KID()
			oldToken, err := km.Sign(sampleClaims(clock.now, 24*time.Hour))
			require.NoError(t, err)

			next, err := km.GenerateSigner()
			require.NoError(t, err)
			retired, err := km.Rotate(next)
			require.NoError(t, err)

			require.Equal(t, oldKid, retired.Kid)
			require.Equal(t, clock.now.Add(time.Hour), retired.NotAfter)
			require.Equal(t, next.KID(), km.Signer().KID())
			require.Len(t, km.Retired(), 1)

			newToken, err := km.Sign(sampleClaims(clock.now, 24*time.Hour))
			require.NoError(t, err)

			// Inside the grace window both keys verify.
			clock.now = clock.now.Add(30 * time.Minute)
			_, err = km.Verify(oldToken)
			require.NoError(t, err)
			_, err = km.Verify(newToken)
			require.NoError(t, err)

			// After it the old key is gone, the new one still works.
			clock.now = clock.now.Add(31 * time.Minute)
			_, err = km.Verify(oldToken)
			require.ErrorIs(t, err, jwtx.ErrUnknownKID)
			_, err = km.Verify(newToken)
			require.NoError(t, err)
			require.Empty(t, km.Retired())
		})
	}
}

func TestKeyManagerRotatePrunesExpiredKeys(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm:   jwtx.AlgorithmHS256,
		Issuer:      exampleIssuer,
		Secret:      testSecret,
		GracePeriod: time.Minute,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	for range 3 {
		next, err := km.GenerateSigner()
		require.NoError(t, err)
		_, err = km.Rotate(next)
		require.NoError(t, err)
		clock.now = clock.now.Add(2 * time.Minute)
	}

	// Only the active key and the most recently retired one remain.
	require.Equal(t, 2, km.KeySet.Len())
}

func TestKeyManagerRotateRejectsOtherAlgorithm(t *testing.T) {
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmHS256, Issuer: exampleIssuer, Secret: testSecret})
	require.NoError(t, err)

	rsaSigner, err := jwtx.NewSignerRS256("rsa", newRSAPEM(t))
	require.NoError(t, err)

	_, err = km.Rotate(rsaSigner)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
	_, err = km.Rotate(nil)
	require.Error(t, err)
}

func TestKeySetPublicJWKSHidesExpiredKeys(t *testing.T) {
	a, err := jwtx.NewSignerRS256("a", newRSAPEM(t))
	require.NoError(t, err)
	b, err := jwtx.NewSignerRS256("b", newRSAPEM(t))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddSigner(a))
	require.NoError(t, ks.AddSigner(b))
	require.Error(t, ks.AddSigner(a), "duplicate kid")

	require.Len(t, ks.PublicJWKS(now).Keys, 2)

	require.NoError(t, ks.Retire("a", now.Add(time.Minute)))
	require.ErrorIs(t, ks.Retire("missing", now), jwtx.ErrNoKey)

	require.Len(t, ks.PublicJWKS(now).Keys, 2)
	later := now.Add(2 * time.Minute)
	jwks := ks.PublicJWKS(later)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "b", jwks.Keys[0].Kid)

	_, _, err = ks.Get("a", later)
	require.ErrorIs(t, err, jwtx.ErrKeyExpired)

	require.Equal(t, []string{"a"}, ks.Prune(later))
	_, _, err = ks.Get("a", later)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}
