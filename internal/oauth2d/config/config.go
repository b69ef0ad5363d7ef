// Package config loads the oauth2d YAML file: client registrations, the
// users known to the static authentication provider and endpoint policy
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// File is the parsed YAML document.
type File struct {
	Clients   []Client          `yaml:"clients"`
	Users     []User            `yaml:"users"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// Client is one client registration as written in the file.
type Client struct {
	ClientID string `yaml:"client_id"`

	// Secret is hashed on load. SecretHash is an argon2id PHC string made
	// with the same pepper the server runs with. At most one may be set;
	// neither means a public client.
	Secret     string `yaml:"secret"`
	SecretHash string `yaml:"secret_hash"`

	GrantTypes   []string `yaml:"grant_types"`
	Scopes       []string `yaml:"scopes"`
	RedirectURIs []string `yaml:"redirect_uris"`
	Authorities  []string `yaml:"authorities"`

	// Go duration strings, e.g. "15m". Empty means the server default.
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

// User is a resource owner for the static authentication provider.
type User struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	PasswordHash string   `yaml:"password_hash"`
	Authorities  []string `yaml:"authorities"`
}

// Load reads, parses and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses and validates a YAML document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &f, nil
}

// Validate checks the shape of the file. Semantic client checks (grant
// combinations, redirect URIs) belong to the registry.
func (f *File) Validate() error {
	var errs []error

	for i, c := range f.Clients {
		if strings.TrimSpace(c.ClientID) == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: client_id is required", i))
			continue
		}
		if c.Secret != "" && c.SecretHash != "" {
			errs = append(errs, fmt.Errorf("client %q: set secret or secret_hash, not both", c.ClientID))
		}
		if _, err := c.TTLs(); err != nil {
			errs = append(errs, fmt.Errorf("client %q: %w", c.ClientID, err))
		}
	}

	seen := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		if strings.TrimSpace(u.Username) == "" {
			errs = append(errs, fmt.Errorf("users[%d]: username is required", i))
			continue
		}
		if _, dup := seen[u.Username]; dup {
			errs = append(errs, fmt.Errorf("user %q: duplicate username", u.Username))
		}
		seen[u.Username] = struct{}{}
		if (u.Password == "") == (u.PasswordHash == "") {
			errs = append(errs, fmt.Errorf("user %q: exactly one of password or password_hash is required", u.Username))
		}
	}

	for endpoint, cond := range f.Endpoints {
		if strings.TrimSpace(cond) == "" {
			errs = append(errs, fmt.Errorf("endpoint %q: empty condition", endpoint))
		}
	}

	return errors.Join(errs...)
}

// ClientTTLs are the parsed per-client token lifetimes.
type ClientTTLs struct {
	Access  time.Duration
	Refresh time.Duration
}

// TTLs parses AccessTokenTTL and RefreshTokenTTL.
func (c *Client) TTLs() (ClientTTLs, error) {
	var out ClientTTLs
	var err error
	if out.Access, err = parseTTL("access_token_ttl", c.AccessTokenTTL); err != nil {
		return ClientTTLs{}, err
	}
	if out.Refresh, err = parseTTL("refresh_token_ttl", c.RefreshTokenTTL); err != nil {
		return ClientTTLs{}, err
	}
	return out, nil
}

func parseTTL(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
