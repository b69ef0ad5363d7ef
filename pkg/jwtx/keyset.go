package jwtx

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNoKey      = errors.New("jwtx: key not found")
	ErrKeyExpired = errors.New("jwtx: key past its grace period")
)

type keyEntry struct {
	alg      string
	key      any
	jwk      *JWK
	notAfter time.Time // zero while the key is active
}

// KeySet holds verification keys by kid. Retired keys keep verifying until
// their notAfter deadline, which is how rotation honours tokens already in
// flight.
type KeySet struct {
	mu    sync.RWMutex
	keys  map[string]*keyEntry
	order []string
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]*keyEntry)}
}

// AddSigner registers a signer's verification key (and JWK when it has one).
func (k *KeySet) AddSigner(s Signer) error {
	if s == nil {
		return errors.New("jwtx: nil signer")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	e := &keyEntry{alg: s.Alg(), key: s.VerificationKey()}
	if p, ok := s.(Publisher); ok {
		j := p.PublicJWK()
		e.jwk = &j
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, dup := k.keys[s.KID()]; dup {
		return fmt.Errorf("jwtx: duplicate kid %q", s.KID())
	}
	k.keys[s.KID()] = e
	k.order = append(k.order, s.KID())
	return nil
}

// Retire starts the grace period for kid. The key verifies until notAfter.
func (k *KeySet) Retire(kid string, notAfter time.Time) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.keys[kid]
	if !ok {
		return ErrNoKey
	}
	e.notAfter = notAfter
	return nil
}

// Get returns the verification key and algorithm for kid as of now.
func (k *KeySet) Get(kid string, now time.Time) (any, string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.keys[kid]
	if !ok {
		return nil, "", ErrNoKey
	}
	if !e.notAfter.IsZero() && now.After(e.notAfter) {
		return nil, "", ErrKeyExpired
	}
	return e.key, e.alg, nil
}

// Prune drops keys whose grace period ended before now and returns their kids.
func (k *KeySet) Prune(now time.Time) []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	var pruned []string
	kept := k.order[:0]
	for _, kid := range k.order {
		e := k.keys[kid]
		if !e.notAfter.IsZero() && now.After(e.notAfter) {
			delete(k.keys, kid)
			pruned = append(pruned, kid)
			continue
		}
		kept = append(kept, kid)
	}
	k.order = kept
	return pruned
}

// PublicJWKS returns the publishable keys still valid at now, oldest first.
func (k *KeySet) PublicJWKS(now time.Time) JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := JWKS{Keys: []JWK{}}
	for _, kid := range k.order {
		e := k.keys[kid]
		if e.jwk == nil {
			continue
		}
		if !e.notAfter.IsZero() && now.After(e.notAfter) {
			continue
		}
		out.Keys = append(out.Keys, *e.jwk)
	}
	return out
}

// Len returns the number of keys held, including retired ones.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	return k.Len() > 0
}
