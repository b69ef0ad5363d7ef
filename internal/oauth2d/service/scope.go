package service

import (
	"slices"
	"strings"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
)

// narrowScopes returns requested ∩ allowed in request order, without
// duplicates. An empty request means everything allowed. A non-empty
// request that shares nothing with allowed is invalid_scope.
func narrowScopes(requested, allowed []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(allowed), nil
	}

	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(allowed, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, domain.Deny(domain.CodeInvalidScope, "Invalid scope: "+strings.Join(requested, " "))
	}
	return out, nil
}
