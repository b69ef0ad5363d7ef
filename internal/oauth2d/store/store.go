package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrExpired       = errors.New("store: record already expired")
)

// Store is the code/refresh token store. Drivers (memory, redis, sqlite)
// implement it. Sub-repositories keep the two record kinds apart.
type Store interface {
	AuthorizationCodes() AuthorizationCodes
	RefreshTokens() RefreshTokens

	// ApplyMigrations prepares the backing schema. A no-op for drivers
	// without one.
	ApplyMigrations() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// AuthorizationCodes holds pending authorization_code grants keyed by the
// code fingerprint.
type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted code. Returns
	// ErrAlreadyExists on a fingerprint collision and ErrExpired when
	// ExpiresAt is not after now.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, now time.Time) error

	// ConsumeAuthorizationCode atomically removes and returns the code.
	// Unknown, already consumed and expired codes all give ErrNotFound.
	ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error)
}

// RefreshTokens holds the records that keep refresh JWTs redeemable.
type RefreshTokens interface {
	// CreateRefreshToken stores a record keyed by the refresh token jti.
	CreateRefreshToken(ctx context.Context, rec domain.RefreshTokenRecord, now time.Time) error

	// ConsumeRefreshToken atomically removes and returns the record.
	// Unknown, consumed and expired records give ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error)

	// GetRefreshToken returns the record without consuming it.
	GetRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error)

	// RotateRefreshToken removes oldJTI and stores next as one step. When
	// oldJTI is unknown, consumed or expired it returns ErrNotFound and
	// stores nothing; on any other failure the old record is kept.
	RotateRefreshToken(ctx context.Context, oldJTI string, next domain.RefreshTokenRecord, now time.Time) error
}
