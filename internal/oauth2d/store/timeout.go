package store

import (
	"context"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
)

// WithTimeout bounds every call on s by d. A zero or negative d returns s
// unchanged.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{Store: s, d: d}
}

type timeoutStore struct {
	Store
	d time.Duration
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.Store.Ping(ctx)
}

func (s *timeoutStore) AuthorizationCodes() AuthorizationCodes {
	return &timeoutCodes{next: s.Store.AuthorizationCodes(), d: s.d}
}

func (s *timeoutStore) RefreshTokens() RefreshTokens {
	return &timeoutRefresh{next: s.Store.RefreshTokens(), d: s.d}
}

type timeoutCodes struct {
	next AuthorizationCodes
	d    time.Duration
}

func (c *timeoutCodes) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	return c.next.CreateAuthorizationCode(ctx, code, now)
}

func (c *timeoutCodes) ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error) {
	ctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	return c.next.ConsumeAuthorizationCode(ctx, codeHash, now)
}

type timeoutRefresh struct {
	next RefreshTokens
	d    time.Duration
}

func (r *timeoutRefresh) CreateRefreshToken(ctx context.Context, rec domain.RefreshTokenRecord, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.d)
	defer cancel()
	return r.next.CreateRefreshToken(ctx, rec, now)
}

func (r *timeoutRefresh) ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.d)
	defer cancel()
	return r.next.ConsumeRefreshToken(ctx, jti, now)
}

func (r *timeoutRefresh) RotateRefreshToken(ctx context.Context, oldJTI string, next domain.RefreshTokenRecord, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.d)
	defer cancel()
	return r.next.RotateRefreshToken(ctx, oldJTI, next, now)
}

func (r *timeoutRefresh) GetRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.d)
	defer cancel()
	return r.next.GetRefreshToken(ctx, jti, now)
}
