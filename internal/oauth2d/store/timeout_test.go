package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store/drivers/memory"
)

// slowCodes blocks until its context is done.
type slowCodes struct{}

func (slowCodes) CreateAuthorizationCode(ctx context.Context, _ domain.AuthorizationCode, _ time.Time) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowCodes) ConsumeAuthorizationCode(ctx context.Context, _ string, _ time.Time) (domain.AuthorizationCode, error) {
	<-ctx.Done()
	return domain.AuthorizationCode{}, ctx.Err()
}

type slowStore struct{ *memory.Store }

func (slowStore) AuthorizationCodes() store.AuthorizationCodes { return slowCodes{} }

func TestWithTimeoutBoundsCalls(t *testing.T) {
	s := store.WithTimeout(slowStore{memory.New()}, 20*time.Millisecond)

	start := time.Now()
	_, err := s.AuthorizationCodes().ConsumeAuthorizationCode(context.Background(), "x", time.Now())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	inner := memory.New()
	require.Same(t, store.Store(inner), store.WithTimeout(inner, 0))

	s := store.WithTimeout(inner, time.Second)
	now := time.Now()
	rec := domain.RefreshTokenRecord{JTI: "j", ClientID: "c", Subject: "s", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), rec, now))

	got, err := s.RefreshTokens().ConsumeRefreshToken(context.Background(), "j", now)
	require.NoError(t, err)
	require.Equal(t, "c", got.ClientID)
}
