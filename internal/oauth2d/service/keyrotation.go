package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

// KeyRotationService rotates the signing key at runtime. Keys live only in
// memory; the retired key keeps verifying for the KeyManager's grace period.
type KeyRotationService struct {
	Keys *jwtx.KeyManager
}

// Rotate generates a new signing key of the configured algorithm and makes
// it active.
func (s *KeyRotationService) Rotate(ctx context.Context) (domain.RotationResult, error) {
	if s.Keys == nil {
		return domain.RotationResult{}, errors.New("key manager is required")
	}

	next, err := s.Keys.GenerateSigner()
	if err != nil {
		return domain.RotationResult{}, fmt.Errorf("generate signing key: %w", err)
	}

	retired, err := s.Keys.Rotate(next)
	if err != nil {
		return domain.RotationResult{}, fmt.Errorf("rotate signing key: %w", err)
	}

	slogx.FromContext(ctx).Info("signing key rotated",
		slog.String("new_kid", next.KID()),
		slog.String("retired_kid", retired.Kid),
		slog.Time("grace_until", retired.NotAfter),
	)

	return domain.RotationResult{
		NewKid:     next.KID(),
		RetiredKid: retired.Kid,
		GraceUntil: retired.NotAfter,
	}, nil
}

// List returns the active key followed by retired keys still in grace.
func (s *KeyRotationService) List(ctx context.Context) []domain.KeyInfo {
	active := s.Keys.Signer()
	out := []domain.KeyInfo{{
		Kid:       active.KID(),
		Algorithm: active.Alg(),
		Active:    true,
	}}
	for _, r := range s.Keys.Retired() {
		out = append(out, domain.KeyInfo{
			Kid:       r.Kid,
			Algorithm: r.Alg,
			RetiredAt: &r.RetiredAt,
			NotAfter:  &r.NotAfter,
		})
	}
	return out
}
