// Package authn authenticates resource owners for the password and
// authorization endpoint flows.
package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
)

// ErrBadCredentials is the only error a Provider returns for a wrong
// username or password. Anything else is an infrastructure failure.
var ErrBadCredentials = errors.New("authn: bad credentials")

// Provider authenticates a username and password.
type Provider interface {
	Authenticate(ctx context.Context, username, password string) (domain.Principal, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, username, password string) (domain.Principal, error)

func (f ProviderFunc) Authenticate(ctx context.Context, username, password string) (domain.Principal, error) {
	return f(ctx, username, password)
}

// WithTimeout bounds every call to p by d. A provider that ignores its
// context is abandoned once d elapses and the caller gets
// context.DeadlineExceeded.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return ProviderFunc(func(ctx context.Context, username, password string) (domain.Principal, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			p   domain.Principal
			err error
		}
		done := make(chan result, 1)
		go func() {
			pr, err := p.Authenticate(ctx, username, password)
			done <- result{pr, err}
		}()

		select {
		case r := <-done:
			return r.p, r.err
		case <-ctx.Done():
			return domain.Principal{}, fmt.Errorf("authn: %w", ctx.Err())
		}
	})
}
