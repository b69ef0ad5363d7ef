package authn_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/authn"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/config"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newStatic(t *testing.T) *authn.StaticProvider {
	t.Helper()
	h, err := cryptox.NewHasher("pepper")
	require.NoError(t, err)

	preHashed, err := h.Hash("password")
	require.NoError(t, err)

	p, err := authn.NewStatic(h, []config.User{
		{Username: "roy", Password: "42", Authorities: []string{"ROLE_USER"}},
		{Username: "admin", PasswordHash: preHashed, Authorities: []string{"ROLE_USER", "ROLE_ADMIN"}},
	})
	require.NoError(t, err)
	return p
}

func TestStaticProvider(t *testing.T) {
	p := newStatic(t)
	require.Equal(t, 2, p.Len())

	tests := []struct {
		name     string
		username string
		password string
		want     []string
		err      error
	}{
		{"plaintext user", "roy", "42", []string{"ROLE_USER"}, nil},
		{"pre-hashed user", "admin", "password", []string{"ROLE_USER", "ROLE_ADMIN"}, nil},
		{"wrong password", "roy", "43", nil, authn.ErrBadCredentials},
		{"unknown user", "nobody", "42", nil, authn.ErrBadCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr, err := p.Authenticate(context.Background(), tt.username, tt.password)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.username, pr.Subject)
			require.Equal(t, tt.want, pr.Authorities)
		})
	}
}

func TestStaticProviderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newStatic(t).Authenticate(ctx, "roy", "42")
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout(t *testing.T) {
	slow := authn.ProviderFunc(func(context.Context, string, string) (domain.Principal, error) {
		time.Sleep(200 * time.Millisecond)
		return domain.Principal{Subject: "late"}, nil
	})

	_, err := authn.WithTimeout(slow, 10*time.Millisecond).Authenticate(context.Background(), "u", "p")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, errors.Is(err, authn.ErrBadCredentials))

	fast := authn.ProviderFunc(func(context.Context, string, string) (domain.Principal, error) {
		return domain.Principal{Subject: "roy"}, nil
	})
	pr, err := authn.WithTimeout(fast, time.Second).Authenticate(context.Background(), "u", "p")
	require.NoError(t, err)
	require.Equal(t, "roy", pr.Subject)
}
