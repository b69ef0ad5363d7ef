package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// ============================================================================
// OAuth2 Error Codes
// ============================================================================

const (
	// RFC 6749 error codes
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeUnauthorizedClient      = "unauthorized_client"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeInvalidScope            = "invalid_scope"
	ErrorCodeAccessDenied            = "access_denied"
	ErrorCodeServerError             = "server_error"
	ErrorCodeTemporarilyUnavailable  = "temporarily_unavailable"

	// RFC 6750
	ErrorCodeInvalidToken = "invalid_token"

	// Returned by the endpoint policy to anonymous callers.
	ErrorCodeUnauthorized = "unauthorized"
)

// RetryAfterSeconds is sent with every temporarily_unavailable response.
const RetryAfterSeconds = 1

// StatusFor maps an error code to the status the server answers with.
// invalid_token is 401 here; check_token overrides it with 400.
func StatusFor(code string) int {
	switch code {
	case ErrorCodeInvalidClient, ErrorCodeInvalidToken, ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeAccessDenied:
		return http.StatusForbidden
	case ErrorCodeTemporarilyUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ============================================================================
// OAuth2Error - Standard OAuth2 error type
// ============================================================================

// OAuth2Error is the {error, error_description} body every endpoint answers
// with on failure. The server writes it with WriteError and the SDK returns
// it from any call that got a non-success status.
type OAuth2Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e to w. A 503 also carries Retry-After.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	status := e.StatusCode
	if status == 0 {
		status = StatusFor(e.Code)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}
	httpx.WriteJSON(w, status, ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

// WithStatus returns a copy of e answering with status instead.
func (e *OAuth2Error) WithStatus(status int) *OAuth2Error {
	cp := *e
	cp.StatusCode = status
	return &cp
}

// ============================================================================
// Predefined OAuth2 Errors
// ============================================================================

var (
	// ErrUnauthorized is the policy deny for a caller with no credentials.
	ErrUnauthorized = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "Full authentication is required to access this resource",
	}

	// ErrAccessDenied is the policy deny for an authenticated caller.
	ErrAccessDenied = &OAuth2Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "Access is denied",
	}

	// ErrInvalidClient is returned when Basic client authentication fails.
	ErrInvalidClient = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidClient,
		Description: "Bad client credentials",
	}

	// ErrInvalidRequest is returned when a required parameter is missing
	// or malformed.
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "The request is malformed or missing required parameters",
	}

	// ErrInvalidToken is returned by resource endpoints for a bearer token
	// that does not verify.
	ErrInvalidToken = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "Invalid access token",
	}

	// ErrTemporarilyUnavailable is returned when a backing store or the
	// user directory timed out. Retryable.
	ErrTemporarilyUnavailable = &OAuth2Error{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeTemporarilyUnavailable,
		Description: "The service is temporarily unavailable, try again later",
	}

	// ErrServerError is returned when the server hit an unexpected condition.
	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "Internal server error",
	}

	// ErrMethodNotAllowed is returned when the HTTP method is not allowed.
	ErrMethodNotAllowed = &OAuth2Error{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "Method not allowed",
	}

	// ErrInvalidContentType is returned when a form endpoint receives
	// something other than application/x-www-form-urlencoded.
	ErrInvalidContentType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "Content-Type must be application/x-www-form-urlencoded",
	}

	// ErrInvalidFormBody is returned when the form body cannot be parsed.
	ErrInvalidFormBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "Invalid form body",
	}
)

// NewOAuth2Error creates an OAuth2Error. A zero statusCode is filled in from
// StatusFor.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	if statusCode == 0 {
		statusCode = StatusFor(code)
	}
	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *OAuth2Error. Bodies
// that are not OAuth2 errors get a server_error carrying the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
