package domain

import "time"

// KeyInfo describes a signing key for the key admin endpoints.
type KeyInfo struct {
	Kid       string     `json:"kid"`
	Algorithm string     `json:"alg"`
	Active    bool       `json:"active"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
}

// RotationResult is returned by a key rotation.
type RotationResult struct {
	NewKid     string    `json:"new_kid"`
	RetiredKid string    `json:"retired_kid"`
	GraceUntil time.Time `json:"grace_until"`
}
