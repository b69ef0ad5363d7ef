package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned for every token that fails verification.
	// The wrapped jwtx error says why, for logs and check_token messages.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrUnavailable marks a collaborator failure (store or authentication
	// provider). Callers should retry; it is never a denial.
	ErrUnavailable = errors.New("temporarily_unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
