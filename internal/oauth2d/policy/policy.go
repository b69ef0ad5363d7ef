// Package policy decides which callers may reach which endpoint. Rules are
// expr expressions compiled once at startup; evaluation is pure.
package policy

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
)

// Endpoint identifiers.
const (
	EndpointToken      = "token"
	EndpointTokenKey   = "token_key"
	EndpointCheckToken = "check_token"
	EndpointResource   = "resource"
	EndpointKeysAdmin  = "keys_admin"
)

// Fixed deny bodies.
const (
	DescFullAuthRequired = "Full authentication is required to access this resource"
	DescAccessDenied     = "Access is denied"
)

// DefaultRules returns the built-in rule for every endpoint.
func DefaultRules() map[string]string {
	return map[string]string{
		EndpointToken:      `isAuthenticated()`,
		EndpointTokenKey:   `isAnonymous() || hasRole('ROLE_TRUSTED_CLIENT')`,
		EndpointCheckToken: `hasRole('TRUSTED_CLIENT')`,
		EndpointResource:   `isAuthenticated() && hasRole('USER')`,
		EndpointKeysAdmin:  `hasRole('TRUSTED_CLIENT')`,
	}
}

var ErrUnknownEndpoint = errors.New("policy: unknown endpoint")

// Caller is whoever is making the request: a client authenticated with
// Basic credentials, a user presenting a bearer token, or nobody.
type Caller struct {
	Authenticated bool
	ClientID      string
	Subject       string
	Authorities   []string
}

// Anonymous is the caller with no credentials.
func Anonymous() Caller { return Caller{} }

// Decision is the outcome of Evaluate.
type Decision struct {
	Permit bool

	// Status is 401 or 403 on deny.
	Status int

	// Denied is the error body on deny.
	Denied *domain.Denied

	// Err is set when the rule failed to evaluate. The request is denied
	// either way; Err is for logs.
	Err error
}

// Policy is an immutable set of compiled rules.
type Policy struct {
	rules   map[string]*vm.Program
	sources map[string]string
}

// New compiles the default rules with overrides applied on top. Overrides
// for endpoints that do not exist are rejected so typos fail at startup.
func New(overrides map[string]string) (*Policy, error) {
	sources := DefaultRules()
	for endpoint, cond := range overrides {
		if _, ok := sources[endpoint]; !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownEndpoint, endpoint)
		}
		sources[endpoint] = cond
	}

	p := &Policy{rules: make(map[string]*vm.Program, len(sources)), sources: sources}
	var errs []error
	for endpoint, cond := range sources {
		prog, err := expr.Compile(cond, expr.Env(bindings(Caller{})), expr.AsBool())
		if err != nil {
			errs = append(errs, fmt.Errorf("endpoint %q: %w", endpoint, err))
			continue
		}
		p.rules[endpoint] = prog
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("policy: compile rules: %w", err)
	}
	return p, nil
}

// Evaluate applies the rule for endpoint to c. Unknown endpoints and rule
// errors deny.
func (p *Policy) Evaluate(endpoint string, c Caller) Decision {
	prog, ok := p.rules[endpoint]
	if !ok {
		return deny(c, fmt.Errorf("%w %q", ErrUnknownEndpoint, endpoint))
	}

	out, err := expr.Run(prog, bindings(c))
	if err != nil {
		return deny(c, fmt.Errorf("policy: evaluate %q: %w", endpoint, err))
	}
	if permit, _ := out.(bool); permit {
		return Decision{Permit: true}
	}
	return deny(c, nil)
}

// Rules returns the source of every compiled rule.
func (p *Policy) Rules() map[string]string {
	return maps.Clone(p.sources)
}

func deny(c Caller, err error) Decision {
	if !c.Authenticated {
		return Decision{
			Status: http.StatusUnauthorized,
			Denied: domain.Deny(domain.CodeUnauthorized, DescFullAuthRequired),
			Err:    err,
		}
	}
	return Decision{
		Status: http.StatusForbidden,
		Denied: domain.Deny(domain.CodeAccessDenied, DescAccessDenied),
		Err:    err,
	}
}

func bindings(c Caller) map[string]any {
	return map[string]any{
		"isAnonymous":     func() bool { return !c.Authenticated },
		"isAuthenticated": func() bool { return c.Authenticated },
		"hasAuthority": func(a string) bool {
			return slices.Contains(c.Authorities, a)
		},
		"hasRole": func(r string) bool {
			return c.hasRole(r)
		},
		"hasAnyRole": func(roles ...string) bool {
			return slices.ContainsFunc(roles, c.hasRole)
		},
	}
}

// hasRole matches r as given and with the ROLE_ prefix, so hasRole('USER')
// and hasRole('ROLE_USER') are the same check.
func (c Caller) hasRole(r string) bool {
	if slices.Contains(c.Authorities, r) {
		return true
	}
	return !strings.HasPrefix(r, "ROLE_") && slices.Contains(c.Authorities, "ROLE_"+r)
}
