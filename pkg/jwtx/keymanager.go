package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/aussiebroadwan/oauth2d/pkg/idx"
)

// DefaultGracePeriod is how long a retired key keeps verifying when no
// grace period is configured. It matches DefaultRefreshTokenTTL so refresh
// tokens signed before a rotation stay usable for their whole lifetime.
const DefaultGracePeriod = DefaultRefreshTokenTTL

const defaultRSABits = 2048

// KeyManager is the key material provider: one active signer plus any
// retired signers still inside their grace period. Rotation swaps the
// active signer atomically; verification never blocks on it for longer
// than a map lookup.
type KeyManager struct {
	KeySet   *KeySet
	Verifier Verifier

	algorithm string
	issuer    string
	rsaBits   int
	grace     time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	active  Signer
	retired []RetiredKey
}

// RetiredKey describes a signer that no longer signs but still verifies.
type RetiredKey struct {
	Kid       string
	Alg       string
	RetiredAt time.Time
	NotAfter  time.Time
}

// KeyManagerOptions configures NewKeyManager.
type KeyManagerOptions struct {
	// Algorithm is RS256 or HS256.
	Algorithm string

	// Issuer is stamped into and required on every token.
	Issuer string

	// KeyID names the initial key. Generated when empty.
	KeyID string

	// PrivateKeyPEM is the RS256 signing key. A key of RSABits is generated
	// when empty.
	PrivateKeyPEM []byte
	RSABits       int

	// Secret is the HS256 signing secret. Required for HS256.
	Secret []byte

	// GracePeriod is how long retired keys keep verifying.
	GracePeriod time.Duration

	// Leeway allows clock skew when checking exp/iat.
	Leeway time.Duration

	Now func() time.Time
}

// NewKeyManager builds the initial signer from opts and wires the KeySet
// and Verifier around it.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.RSABits == 0 {
		opts.RSABits = defaultRSABits
	}

	kid := opts.KeyID
	if kid == "" {
		kid = newKeyID()
	}

	var (
		signer Signer
		err    error
	)
	switch opts.Algorithm {
	case AlgorithmRS256:
		pemKey := opts.PrivateKeyPEM
		if len(pemKey) == 0 {
			pemKey, err = cryptox.GenerateRSAKey(opts.RSABits)
			if err != nil {
				return nil, fmt.Errorf("jwtx: generate RS256 key: %w", err)
			}
		}
		signer, err = NewSignerRS256(kid, pemKey)
	case AlgorithmHS256:
		if len(opts.Secret) == 0 {
			return nil, errors.New("jwtx: HS256 requires a secret")
		}
		signer, err = NewSignerHS256(kid, opts.Secret)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, HS256)", opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	keys := NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, err
	}

	return &KeyManager{
		KeySet: keys,
		Verifier: NewVerifier(keys, VerifyOptions{
			Algorithm: opts.Algorithm,
			Issuer:    opts.Issuer,
			Leeway:    opts.Leeway,
			Now:       opts.Now,
		}),
		algorithm: opts.Algorithm,
		issuer:    opts.Issuer,
		rsaBits:   opts.RSABits,
		grace:     opts.GracePeriod,
		now:       opts.Now,
		active:    signer,
	}, nil
}

func (km *KeyManager) Algorithm() string { return km.algorithm }
func (km *KeyManager) Issuer() string    { return km.issuer }

// Now is the clock shared by signing and verification.
func (km *KeyManager) Now() time.Time { return km.now() }

// IsReady reports whether an active signer is loaded.
func (km *KeyManager) IsReady() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.active != nil && km.KeySet.IsReady()
}

// Signer returns the active signer.
func (km *KeyManager) Signer() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.active
}

// Sign signs claims with the active key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	return km.Signer().Sign(claims)
}

// Verify checks token against the active and in-grace keys.
func (km *KeyManager) Verify(token string) (Claims, error) {
	return km.Verifier.Verify(token)
}

// GenerateSigner makes a fresh signer of the configured algorithm.
func (km *KeyManager) GenerateSigner() (Signer, error) {
	kid := newKeyID()
	switch km.algorithm {
	case AlgorithmRS256:
		pemKey, err := cryptox.GenerateRSAKey(km.rsaBits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate RS256 key: %w", err)
		}
		return NewSignerRS256(kid, pemKey)
	case AlgorithmHS256:
		secret, err := cryptox.GenerateSecret(MinHMACSecretBytes)
		if err != nil {
			return nil, err
		}
		return NewSignerHS256(kid, secret)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", km.algorithm)
	}
}

// Rotate makes next the active signer. The previous signer is retired and
// keeps verifying for the grace period. Keys whose grace already ended are
// dropped.
func (km *KeyManager) Rotate(next Signer) (RetiredKey, error) {
	if next == nil {
		return RetiredKey{}, errors.New("jwtx: nil signer")
	}
	if next.Alg() != km.algorithm {
		return RetiredKey{}, fmt.Errorf("%w: manager uses %s, signer is %s", ErrAlgMismatch, km.algorithm, next.Alg())
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(next); err != nil {
		return RetiredKey{}, err
	}

	now := km.now()
	prev := km.active
	retired := RetiredKey{
		Kid:       prev.KID(),
		Alg:       prev.Alg(),
		RetiredAt: now,
		NotAfter:  now.Add(km.grace),
	}
	if err := km.KeySet.Retire(prev.KID(), retired.NotAfter); err != nil {
		return RetiredKey{}, err
	}

	pruned := km.KeySet.Prune(now)
	km.retired = slices.DeleteFunc(km.retired, func(r RetiredKey) bool {
		return slices.Contains(pruned, r.Kid)
	})
	km.retired = append(km.retired, retired)
	km.active = next

	return retired, nil
}

// Retired lists retired keys still inside their grace period.
func (km *KeyManager) Retired() []RetiredKey {
	km.mu.RLock()
	defer km.mu.RUnlock()

	now := km.now()
	out := make([]RetiredKey, 0, len(km.retired))
	for _, r := range km.retired {
		if now.After(r.NotAfter) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func newKeyID() string {
	return idx.WithPrefix("oauth2d")
}
