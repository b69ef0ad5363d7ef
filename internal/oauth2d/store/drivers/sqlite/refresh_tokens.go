package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
)

type refreshTokensRepo struct {
	s *Store
}

const refreshColumns = `jti, client_id, subject, user_name, authorities, scopes, expires_at`

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, rec domain.RefreshTokenRecord, now time.Time) error {
	if !now.Before(rec.ExpiresAt) {
		return store.ErrExpired
	}

	err := r.s.WithTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(now)); err != nil {
			return err
		}
		return insertRefresh(ctx, q, rec)
	})
	return wrap("create refresh token", err)
}

func (r *refreshTokensRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next domain.RefreshTokenRecord, now time.Time) error {
	if !now.Before(next.ExpiresAt) {
		return store.ErrExpired
	}

	// Both statements commit together or not at all.
	err := r.s.WithTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`DELETE FROM refresh_tokens WHERE jti = ? AND expires_at > ?`, oldJTI, toMillis(now))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return insertRefresh(ctx, q, next)
	})
	return wrap("rotate refresh token", err)
}

func insertRefresh(ctx context.Context, q querier, rec domain.RefreshTokenRecord) error {
	return insertResult(q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (`+refreshColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (jti) DO NOTHING`,
		rec.JTI,
		rec.ClientID,
		rec.Subject,
		rec.UserName,
		joinFields(rec.Authorities),
		joinFields(rec.Scopes),
		toMillis(rec.ExpiresAt),
	))
}

func (r *refreshTokensRepo) ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	row := r.s.db.QueryRowContext(ctx,
		`DELETE FROM refresh_tokens WHERE jti = ? RETURNING `+refreshColumns, jti)
	rec, err := scanRefresh(row)
	if err != nil {
		return domain.RefreshTokenRecord{}, wrap("consume refresh token", err)
	}
	if !now.Before(rec.ExpiresAt) {
		return domain.RefreshTokenRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, jti string, now time.Time) (domain.RefreshTokenRecord, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+refreshColumns+` FROM refresh_tokens WHERE jti = ? AND expires_at > ?`, jti, toMillis(now))
	rec, err := scanRefresh(row)
	return rec, wrap("get refresh token", err)
}

func scanRefresh(row interface{ Scan(...any) error }) (domain.RefreshTokenRecord, error) {
	var (
		rec                 domain.RefreshTokenRecord
		authorities, scopes string
		expiresAt           int64
	)
	if err := row.Scan(&rec.JTI, &rec.ClientID, &rec.Subject, &rec.UserName, &authorities, &scopes, &expiresAt); err != nil {
		return domain.RefreshTokenRecord{}, mapNotFound(err)
	}
	rec.Authorities = splitAndFilter(authorities)
	rec.Scopes = splitAndFilter(scopes)
	rec.ExpiresAt = fromMillis(expiresAt)
	return rec, nil
}
