package authn

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/config"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
)

type staticUser struct {
	passwordHash string
	authorities  []string
}

// StaticProvider checks credentials against users loaded from the config
// file. Passwords are held only as argon2id hashes.
type StaticProvider struct {
	users  map[string]staticUser
	hasher *cryptox.Hasher
}

// NewStatic hashes plaintext passwords from users and returns a provider.
func NewStatic(hasher *cryptox.Hasher, users []config.User) (*StaticProvider, error) {
	if hasher == nil {
		return nil, errors.New("authn: hasher is required")
	}

	p := &StaticProvider{users: make(map[string]staticUser, len(users)), hasher: hasher}
	for _, u := range users {
		hash := u.PasswordHash
		if u.Password != "" {
			var err error
			if hash, err = hasher.Hash(u.Password); err != nil {
				return nil, fmt.Errorf("authn: hash password for %q: %w", u.Username, err)
			}
		}
		p.users[u.Username] = staticUser{passwordHash: hash, authorities: slices.Clone(u.Authorities)}
	}
	return p, nil
}

func (p *StaticProvider) Authenticate(ctx context.Context, username, password string) (domain.Principal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Principal{}, err
	}

	u, ok := p.users[username]
	if !ok {
		_ = p.hasher.VerifyDummy(password)
		return domain.Principal{}, ErrBadCredentials
	}
	if err := p.hasher.Verify(password, u.passwordHash); err != nil {
		return domain.Principal{}, ErrBadCredentials
	}

	return domain.Principal{Subject: username, Authorities: slices.Clone(u.authorities)}, nil
}

// Len is the number of known users.
func (p *StaticProvider) Len() int { return len(p.users) }
