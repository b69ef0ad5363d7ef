package domain

import "fmt"

// OAuth2 error codes (RFC 6749 section 5.2 plus the resource server codes).
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidScope            = "invalid_scope"
	CodeInvalidToken            = "invalid_token"
	CodeUnauthorized            = "unauthorized"
	CodeAccessDenied            = "access_denied"
	CodeTemporarilyUnavailable  = "temporarily_unavailable"
	CodeServerError             = "server_error"
)

// Denied is a protocol-level refusal. It is returned as a value, never
// panicked, and carries the OAuth2 error code the client will see.
type Denied struct {
	Code        string
	Description string
}

func (d *Denied) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Description)
}

// Deny builds a *Denied.
func Deny(code, description string) *Denied {
	return &Denied{Code: code, Description: description}
}
