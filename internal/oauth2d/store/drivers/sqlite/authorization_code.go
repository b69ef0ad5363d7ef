package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
)

type authorizationCodesRepo struct {
	s *Store
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode, now time.Time) error {
	if code.Expired(now) {
		return store.ErrExpired
	}

	err := r.s.WithTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`DELETE FROM authorization_codes WHERE expires_at <= ?`, toMillis(now)); err != nil {
			return err
		}
		return insertResult(q.ExecContext(ctx, `
			INSERT INTO authorization_codes
				(code_hash, client_id, redirect_uri, subject, authorities, scopes, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (code_hash) DO NOTHING`,
			code.CodeHash,
			code.ClientID,
			code.RedirectURI,
			code.Subject,
			joinFields(code.Authorities),
			joinFields(code.Scopes),
			toMillis(code.ExpiresAt),
		))
	})
	return wrap("create authorization code", err)
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error) {
	var (
		c                   domain.AuthorizationCode
		authorities, scopes string
		expiresAt           int64
	)
	err := r.s.db.QueryRowContext(ctx, `
		DELETE FROM authorization_codes
		WHERE code_hash = ?
		RETURNING code_hash, client_id, redirect_uri, subject, authorities, scopes, expires_at`,
		codeHash,
	).Scan(&c.CodeHash, &c.ClientID, &c.RedirectURI, &c.Subject, &authorities, &scopes, &expiresAt)
	if err != nil {
		return domain.AuthorizationCode{}, wrap("consume authorization code", mapNotFound(err))
	}

	c.Authorities = splitAndFilter(authorities)
	c.Scopes = splitAndFilter(scopes)
	c.ExpiresAt = fromMillis(expiresAt)
	if c.Expired(now) {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	return c, nil
}
