// Package redis is a Store on Redis. Records are JSON values keyed by
// <prefix>code:<hash> and <prefix>refresh:<jti>, expiring through key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
)

const (
	DefaultPrefix       = "oauth2d:"
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

type Options struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key. Defaults to DefaultPrefix.
	Prefix string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Store struct {
	client redis.UniversalClient
	prefix string
}

// New connects to opts.Addr and pings it before returning.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", opts.Addr, err)
	}
	return &Store{client: client, prefix: opts.Prefix}, nil
}

// NewWithClient wraps an existing client, e.g. one pointed at miniredis.
func NewWithClient(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return (*codesRepo)(s) }
func (s *Store) RefreshTokens() store.RefreshTokens           { return (*refreshRepo)(s) }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) codeKey(hash string) string  { return s.prefix + "code:" + hash }
func (s *Store) refreshKey(jti string) string { return s.prefix + "refresh:" + jti }

// put stores v under key if absent, expiring at expiresAt.
func (s *Store) put(ctx context.Context, key string, v any, expiresAt, now time.Time) error {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return store.ErrExpired
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: marshal: %w", err)
	}

	ok, err := s.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

// take atomically reads and deletes key into v.
func (s *Store) take(ctx context.Context, key string, v any) error {
	data, err := s.client.GetDel(ctx, key).Bytes()
	return s.decode(key, data, err, v)
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	return s.decode(key, data, err, v)
}

func (s *Store) decode(key string, data []byte, err error, v any) error {
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return nil
}

type storedCode struct {
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Subject     string    `json:"subject"`
	Authorities []string  `json:"authorities,omitempty"`
	Scopes      []string  `json:"scopes,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type codesRepo Store

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, now time.Time) error {
	s := (*Store)(r)
	return s.put(ctx, s.codeKey(code.CodeHash), storedCode{
		ClientID:    code.ClientID,
		RedirectURI: code.RedirectURI,
		Subject:     code.Subject,
		Authorities: code.Authorities,
		Scopes:      code.Scopes,
		ExpiresAt:   code.ExpiresAt,
	}, code.ExpiresAt, now)
}

func (r *codesRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error) {
	s := (*Store)(r)
	var sc storedCode
	if err := s.take(ctx, s.codeKey(codeHash), &sc); err != nil {
		return domain.AuthorizationCode{}, err
	}

	code := domain.AuthorizationCode{
		CodeHash:    codeHash,
		ClientID:    sc.ClientID,
		RedirectURI: sc.RedirectURI,
		Subject:     sc.Subject,
		Authorities: sc.Authorities,
		Scopes:      sc.Scopes,
		ExpiresAt:   sc.ExpiresAt,
	}
	// Key TTLs run on the server clock; now is authoritative.
	if code.Expired(now) {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	return code, nil
}

type storedRefresh struct {
	ClientID    string    `json:"client_id"`
	Subject     string    `json:"subject"`
	UserName    string    `json:"user_name,omitempty"`
	Authorities []string  `json:"authorities,omitempty"`
	Scopes      []string  `json:"scopes,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toStoredRefresh(rec domain.RefreshTokenRecord) storedRefresh {
	return storedRefresh{
		ClientID:    rec.ClientID,
		Subject:     rec.Subject,
		UserName:    rec.UserName,
		Authorities: rec.Authorities,
		Scopes:      rec.Scopes,
		ExpiresAt:   rec.ExpiresAt,
	}
}

func (sr storedRefresh) record(jti string) domain.RefreshTokenRecord {
	return domain.RefreshTokenRecord{
		JTI:         jti,
		ClientID:    sr.ClientID,
		Subject:     sr.Subject,
		UserName:    sr.UserName,
		Authorities: sr.Authorities,
		Scopes:      sr.Scopes,
		ExpiresAt:   sr.ExpiresAt,
	}
}

type refreshRepo Store

func (r *refreshRepo) CreateRefreshToken(ctx context.Context, rec domain.RefreshTokenRecord, now time.Time) error {
	s := (*Store)(r)
	return s.put(ctx, s.refreshKey(rec.JTI), toStoredRefresh(rec), rec.ExpiresAt, now)
}

// RotateRefreshToken runs as an optimistic transaction over both keys. If
// another client touches the old key first, the EXEC is discarded and the
// old token counts as consumed.
func (r *refreshRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next domain.RefreshTokenRecord, now time.Time) error {
	s := (*Store)(r)
	ttl := next.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return store.ErrExpired
	}
	data, err := json.Marshal(toStoredRefresh(next))
	if err != nil {
		return fmt.Errorf("redis: marshal: %w", err)
	}

	oldKey, newKey := s.refreshKey(oldJTI), s.refreshKey(next.JTI)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		var sr storedRefresh
		raw, err := tx.Get(ctx, oldKey).Bytes()
		if err := s.decode(oldKey, raw, err, &sr); err != nil {
			return err
		}
		if !now.Before(sr.ExpiresAt) {
			return store.ErrNotFound
		}

		n, err := tx.Exists(ctx, newKey).Result()
		if err != nil {
			return fmt.Errorf("redis: exists %s: %w", newKey, err)
		}
		if n > 0 {
			return store.ErrAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, oldKey)
			p.Set(ctx, newKey, data, ttl)
			return nil
		})
		return err
	}, oldKey, newKey)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrNotFound
	}
	return err
}

func (r *refreshRepo) ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	s := (*Store)(r)
	var sr storedRefresh
	if err := s.take(ctx, s.refreshKey(jti), &sr); err != nil {
		return domain.RefreshTokenRecord{}, err
	}
	if !now.Before(sr.ExpiresAt) {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	return sr.record(jti), nil
}

func (r *refreshRepo) GetRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	s := (*Store)(r)
	var sr storedRefresh
	if err := s.get(ctx, s.refreshKey(jti), &sr); err != nil {
		return domain.RefreshTokenRecord{}, err
	}
	if !now.Before(sr.ExpiresAt) {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	return sr.record(jti), nil
}
