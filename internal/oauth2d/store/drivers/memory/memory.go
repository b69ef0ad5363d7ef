// Package memory is a single-process Store. Records vanish on restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
)

type Store struct {
	mu      sync.Mutex
	codes   map[string]domain.AuthorizationCode
	refresh map[string]domain.RefreshTokenRecord
}

func New() *Store {
	return &Store{
		codes:   make(map[string]domain.AuthorizationCode),
		refresh: make(map[string]domain.RefreshTokenRecord),
	}
}

func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return (*codesRepo)(s) }
func (s *Store) RefreshTokens() store.RefreshTokens           { return (*refreshRepo)(s) }

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// sweep drops expired records. Called with mu held on every write.
func (s *Store) sweep(now time.Time) {
	for k, c := range s.codes {
		if c.Expired(now) {
			delete(s.codes, k)
		}
	}
	for k, r := range s.refresh {
		if !now.Before(r.ExpiresAt) {
			delete(s.refresh, k)
		}
	}
}

type codesRepo Store

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if code.Expired(now) {
		return store.ErrExpired
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)

	if _, dup := s.codes[code.CodeHash]; dup {
		return store.ErrAlreadyExists
	}
	code.Scopes = slices.Clone(code.Scopes)
	code.Authorities = slices.Clone(code.Authorities)
	s.codes[code.CodeHash] = code
	return nil
}

func (r *codesRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuthorizationCode{}, err
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[codeHash]
	if !ok {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	delete(s.codes, codeHash)
	if code.Expired(now) {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	return code, nil
}

type refreshRepo Store

func (r *refreshRepo) CreateRefreshToken(ctx context.Context, rec domain.RefreshTokenRecord, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !now.Before(rec.ExpiresAt) {
		return store.ErrExpired
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)

	if _, dup := s.refresh[rec.JTI]; dup {
		return store.ErrAlreadyExists
	}
	rec.Scopes = slices.Clone(rec.Scopes)
	rec.Authorities = slices.Clone(rec.Authorities)
	s.refresh[rec.JTI] = rec
	return nil
}

func (r *refreshRepo) ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RefreshTokenRecord{}, err
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[jti]
	if !ok {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	delete(s.refresh, jti)
	if !now.Before(rec.ExpiresAt) {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *refreshRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next domain.RefreshTokenRecord, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !now.Before(next.ExpiresAt) {
		return store.ErrExpired
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refresh[oldJTI]
	if !ok || !now.Before(old.ExpiresAt) {
		return store.ErrNotFound
	}
	if _, dup := s.refresh[next.JTI]; dup {
		return store.ErrAlreadyExists
	}

	delete(s.refresh, oldJTI)
	s.sweep(now)
	next.Scopes = slices.Clone(next.Scopes)
	next.Authorities = slices.Clone(next.Authorities)
	s.refresh[next.JTI] = next
	return nil
}

func (r *refreshRepo) GetRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RefreshTokenRecord{}, err
	}

	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[jti]
	if !ok || !now.Before(rec.ExpiresAt) {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	return rec, nil
}
