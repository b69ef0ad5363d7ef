// Package storetest is the behaviour every store driver must share. Driver
// tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
)

// Factory returns an empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

var base = time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC)

func sampleCode(hash string) domain.AuthorizationCode {
	return domain.AuthorizationCode{
		CodeHash:    hash,
		ClientID:    "trusted",
		RedirectURI: "http://localhost:8080/client/",
		Subject:     "roy",
		Authorities: []string{"ROLE_USER"},
		Scopes:      []string{"read", "write"},
		ExpiresAt:   base.Add(5 * time.Minute),
	}
}

func sampleRefresh(jti string) domain.RefreshTokenRecord {
	return domain.RefreshTokenRecord{
		JTI:         jti,
		ClientID:    "trusted",
		Subject:     "roy",
		UserName:    "roy",
		Authorities: []string{"ROLE_USER"},
		Scopes:      []string{"read"},
		ExpiresAt:   base.Add(time.Hour),
	}
}

// Run exercises s against the store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})

	t.Run("AuthorizationCodeSingleUse", func(t *testing.T) {
		ctx := context.Background()
		codes := newStore(t).AuthorizationCodes()

		want := sampleCode("hash-1")
		require.NoError(t, codes.CreateAuthorizationCode(ctx, want, base))
		require.ErrorIs(t, codes.CreateAuthorizationCode(ctx, want, base), store.ErrAlreadyExists)

		got, err := codes.ConsumeAuthorizationCode(ctx, "hash-1", base.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, want.ClientID, got.ClientID)
		require.Equal(t, want.RedirectURI, got.RedirectURI)
		require.Equal(t, want.Subject, got.Subject)
		require.Equal(t, want.Scopes, got.Scopes)
		require.Equal(t, want.Authorities, got.Authorities)
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

		_, err = codes.ConsumeAuthorizationCode(ctx, "hash-1", base.Add(time.Minute))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AuthorizationCodeUnknown", func(t *testing.T) {
		_, err := newStore(t).AuthorizationCodes().ConsumeAuthorizationCode(context.Background(), "nope", base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("AuthorizationCodeExpired", func(t *testing.T) {
		ctx := context.Background()
		codes := newStore(t).AuthorizationCodes()

		require.NoError(t, codes.CreateAuthorizationCode(ctx, sampleCode("hash-2"), base))
		_, err := codes.ConsumeAuthorizationCode(ctx, "hash-2", base.Add(10*time.Minute))
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, codes.CreateAuthorizationCode(ctx, sampleCode("hash-3"), base.Add(time.Hour)), store.ErrExpired)
	})

	t.Run("RefreshTokenRotation", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()

		want := sampleRefresh("jti-1")
		require.NoError(t, refresh.CreateRefreshToken(ctx, want, base))
		require.ErrorIs(t, refresh.CreateRefreshToken(ctx, want, base), store.ErrAlreadyExists)

		got, err := refresh.GetRefreshToken(ctx, "jti-1", base)
		require.NoError(t, err)
		require.Equal(t, want.UserName, got.UserName)

		got, err = refresh.ConsumeRefreshToken(ctx, "jti-1", base.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, want.ClientID, got.ClientID)
		require.Equal(t, want.Subject, got.Subject)
		require.Equal(t, want.Scopes, got.Scopes)
		require.Equal(t, want.Authorities, got.Authorities)
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

		_, err = refresh.GetRefreshToken(ctx, "jti-1", base)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = refresh.ConsumeRefreshToken(ctx, "jti-1", base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("RefreshTokenExpired", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()

		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("jti-2"), base))
		_, err := refresh.GetRefreshToken(ctx, "jti-2", base.Add(2*time.Hour))
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = refresh.ConsumeRefreshToken(ctx, "jti-2", base.Add(2*time.Hour))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("RefreshTokenRotate", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()

		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("old"), base))
		require.NoError(t, refresh.RotateRefreshToken(ctx, "old", sampleRefresh("new"), base))

		_, err := refresh.GetRefreshToken(ctx, "old", base)
		require.ErrorIs(t, err, store.ErrNotFound)
		got, err := refresh.GetRefreshToken(ctx, "new", base)
		require.NoError(t, err)
		require.Equal(t, "roy", got.Subject)

		// A spent token cannot be rotated again, and nothing is stored.
		require.ErrorIs(t, refresh.RotateRefreshToken(ctx, "old", sampleRefresh("newer"), base), store.ErrNotFound)
		_, err = refresh.GetRefreshToken(ctx, "newer", base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("RefreshTokenRotateKeepsOldOnFailure", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()

		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("keep"), base))
		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("taken"), base))

		require.ErrorIs(t, refresh.RotateRefreshToken(ctx, "keep", sampleRefresh("taken"), base), store.ErrAlreadyExists)
		_, err := refresh.GetRefreshToken(ctx, "keep", base)
		require.NoError(t, err)

		expired := sampleRefresh("stale")
		expired.ExpiresAt = base
		require.ErrorIs(t, refresh.RotateRefreshToken(ctx, "keep", expired, base), store.ErrExpired)
		_, err = refresh.GetRefreshToken(ctx, "keep", base)
		require.NoError(t, err)

		require.NoError(t, refresh.RotateRefreshToken(ctx, "keep", sampleRefresh("next"), base))
	})

	t.Run("RefreshTokenRotateExpired", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()

		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("old"), base))
		next := sampleRefresh("new")
		next.ExpiresAt = base.Add(3 * time.Hour)
		require.ErrorIs(t, refresh.RotateRefreshToken(ctx, "old", next, base.Add(2*time.Hour)), store.ErrNotFound)
	})

	t.Run("ConcurrentRotateHasOneWinner", func(t *testing.T) {
		ctx := context.Background()
		refresh := newStore(t).RefreshTokens()
		require.NoError(t, refresh.CreateRefreshToken(ctx, sampleRefresh("race-old"), base))

		const workers = 16
		var wins atomic.Int32
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := refresh.RotateRefreshToken(ctx, "race-old", sampleRefresh(fmt.Sprintf("race-new-%d", i)), base)
				switch {
				case err == nil:
					wins.Add(1)
				case !errors.Is(err, store.ErrNotFound):
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("ConcurrentConsumeHasOneWinner", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, sampleCode("race-code"), base))
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, sampleRefresh("race-jti"), base))

		const workers = 16
		var codeWins, refreshWins atomic.Int32
		var wg sync.WaitGroup
		errs := make(chan error, 2*workers)

		for range workers {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := s.AuthorizationCodes().ConsumeAuthorizationCode(ctx, "race-code", base)
				switch {
				case err == nil:
					codeWins.Add(1)
				case !errors.Is(err, store.ErrNotFound):
					errs <- err
				}
			}()
			go func() {
				defer wg.Done()
				_, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "race-jti", base)
				switch {
				case err == nil:
					refreshWins.Add(1)
				case !errors.Is(err, store.ErrNotFound):
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, int32(1), codeWins.Load())
		require.Equal(t, int32(1), refreshWins.Load())
	})

	t.Run("ManyRecords", func(t *testing.T) {
		ctx := context.Background()
		codes := newStore(t).AuthorizationCodes()
		for i := range 20 {
			require.NoError(t, codes.CreateAuthorizationCode(ctx, sampleCode(fmt.Sprintf("bulk-%d", i)), base))
		}
		for i := range 20 {
			_, err := codes.ConsumeAuthorizationCode(ctx, fmt.Sprintf("bulk-%d", i), base)
			require.NoError(t, err)
		}
	})
}
