// Package docs registers the OpenAPI document served under /swagger/.
// It has the layout swag init produces from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/oauth2d"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the principal behind the bearer access token. Requires the USER role.",
                "produces": ["application/json"],
                "tags": ["Resource"],
                "summary": "Current principal",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.PrincipalResponse"}},
                    "401": {"description": "Missing or invalid access token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Access is denied", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "description": "Returns the JSON Web Key Set used to verify JWTs.",
                "produces": ["application/json"],
                "tags": ["well-known"],
                "summary": "Get JWKS",
                "responses": {
                    "200": {"description": "The JSON Web Key Set", "schema": {"$ref": "#/definitions/authsdk.JWKSResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness probe returning uptime, version and the signing algorithm. Always 200 while the process serves requests.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, algorithm", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe returning uptime, version and the status of the token store and the signing key",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/oauth/authorize": {
            "get": {
                "description": "Redirects back to the client with access_denied: credentials are only read from a POST body.",
                "tags": ["OAuth2"],
                "summary": "OAuth2 authorization endpoint",
                "parameters": [
                    {"enum": ["code", "token"], "type": "string", "description": "code or token", "name": "response_type", "in": "query", "required": true},
                    {"type": "string", "description": "OAuth2 client identifier", "name": "client_id", "in": "query", "required": true},
                    {"type": "string", "description": "Registered redirect URI (defaults to the first one)", "name": "redirect_uri", "in": "query"},
                    {"type": "string", "description": "Space-delimited list of scopes", "name": "scope", "in": "query"},
                    {"type": "string", "description": "Opaque value echoed back in the redirect", "name": "state", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Redirect to redirect_uri"},
                    "400": {"description": "Unregistered redirect URI", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "Unknown client", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "503": {"description": "User directory unavailable", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Authenticates the resource owner and redirects back to the client.",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["OAuth2"],
                "summary": "OAuth2 authorization endpoint",
                "parameters": [
                    {"enum": ["code", "token"], "type": "string", "description": "code or token", "name": "response_type", "in": "formData", "required": true},
                    {"type": "string", "description": "OAuth2 client identifier", "name": "client_id", "in": "formData", "required": true},
                    {"type": "string", "description": "Registered redirect URI (defaults to the first one)", "name": "redirect_uri", "in": "formData"},
                    {"type": "string", "description": "Space-delimited list of scopes", "name": "scope", "in": "formData"},
                    {"type": "string", "description": "Opaque value echoed back in the redirect", "name": "state", "in": "formData"},
                    {"type": "string", "description": "Resource owner username", "name": "username", "in": "formData"},
                    {"type": "string", "description": "Resource owner password", "name": "password", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "Redirect to redirect_uri"},
                    "400": {"description": "Unregistered redirect URI", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "Unknown client", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "503": {"description": "User directory unavailable", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/check_token": {
            "post": {
                "security": [{"ClientBasic": []}],
                "description": "Verifies an access token and returns its claims. Only trusted clients may call it.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "Decode an access token",
                "parameters": [
                    {"type": "string", "description": "The access token", "name": "token", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Decoded claims", "schema": {"$ref": "#/definitions/authsdk.CheckTokenResponse"}},
                    "400": {"description": "invalid_token", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "Full authentication is required", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Access is denied", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/keys": {
            "get": {
                "security": [{"ClientBasic": []}],
                "description": "The active key first, then retired keys that still verify tokens.",
                "produces": ["application/json"],
                "tags": ["Keys"],
                "summary": "List signing keys",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.ListKeysResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Access is denied", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/keys/rotate": {
            "post": {
                "security": [{"ClientBasic": []}],
                "description": "Generates a new key of the configured algorithm. The old key keeps verifying until its grace period ends.",
                "produces": ["application/json"],
                "tags": ["Keys"],
                "summary": "Rotate the signing key",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.RotateKeyResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Access is denied", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/token": {
            "post": {
                "security": [{"ClientBasic": []}],
                "description": "Issues tokens for the client_credentials, password, authorization_code and refresh_token grants.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "OAuth2 Token Endpoint",
                "parameters": [
                    {"enum": ["client_credentials", "password", "authorization_code", "refresh_token"], "type": "string", "description": "Grant type", "name": "grant_type", "in": "formData", "required": true},
                    {"type": "string", "description": "Space-delimited list of scopes", "name": "scope", "in": "formData"},
                    {"type": "string", "description": "Resource owner username (password grant)", "name": "username", "in": "formData"},
                    {"type": "string", "description": "Resource owner password (password grant)", "name": "password", "in": "formData"},
                    {"type": "string", "description": "Authorization code (authorization_code grant)", "name": "code", "in": "formData"},
                    {"type": "string", "description": "Redirect URI the code was issued for (authorization_code grant)", "name": "redirect_uri", "in": "formData"},
                    {"type": "string", "description": "Refresh token (refresh_token grant)", "name": "refresh_token", "in": "formData"}
                ],
                "responses": {
                    "200": {
                        "description": "access_token, token_type, expires_in, scope, refresh_token, jti",
                        "schema": {"$ref": "#/definitions/authsdk.TokenResponse"},
                        "headers": {
                            "Cache-Control": {"type": "string", "description": "no-store"},
                            "Pragma": {"type": "string", "description": "no-cache"}
                        }
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "503": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/token_key": {
            "get": {
                "security": [{"ClientBasic": []}],
                "description": "Returns the algorithm and, for RS256, the PEM encoded public key of the active signing key.",
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "Token verification key",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.TokenKeyResponse"}},
                    "401": {"description": "Bad client credentials", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "Access is denied", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.CheckTokenResponse": {
            "type": "object",
            "properties": {
                "authorities": {"type": "array", "items": {"type": "string"}},
                "client_id": {"type": "string"},
                "exp": {"type": "integer"},
                "iat": {"type": "integer"},
                "iss": {"type": "string"},
                "jti": {"type": "string"},
                "scope": {"type": "array", "items": {"type": "string"}},
                "sub": {"type": "string"},
                "user_name": {"type": "string"}
            }
        },
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "signer": {"type": "string"},
                "store": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "algorithm": {"type": "string"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "authsdk.JWKSResponse": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"$ref": "#/definitions/jwtx.JWK"}}
            }
        },
        "authsdk.ListKeysResponse": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"$ref": "#/definitions/authsdk.SigningKeyInfo"}}
            }
        },
        "authsdk.PrincipalResponse": {
            "type": "object",
            "properties": {
                "authorities": {"type": "array", "items": {"type": "string"}},
                "client_id": {"type": "string", "example": "trusted"},
                "name": {"type": "string", "example": "roy"},
                "scope": {"type": "array", "items": {"type": "string"}}
            }
        },
        "authsdk.RotateKeyResponse": {
            "type": "object",
            "properties": {
                "grace_until": {"type": "string"},
                "new_kid": {"type": "string"},
                "retired_kid": {"type": "string"}
            }
        },
        "authsdk.SigningKeyInfo": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "alg": {"type": "string"},
                "kid": {"type": "string"},
                "not_after": {"type": "string"},
                "retired_at": {"type": "string"}
            }
        },
        "authsdk.TokenKeyResponse": {
            "type": "object",
            "properties": {
                "alg": {"type": "string", "example": "RS256"},
                "value": {"type": "string"}
            }
        },
        "authsdk.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "jti": {"type": "string"},
                "refresh_token": {"type": "string"},
                "scope": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "jwtx.JWK": {
            "type": "object",
            "properties": {
                "alg": {"type": "string"},
                "e": {"type": "string"},
                "kid": {"type": "string"},
                "kty": {"type": "string"},
                "n": {"type": "string"},
                "use": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "ClientBasic": {
            "description": "OAuth2 client credentials, form-encoded then base64 encoded.",
            "type": "basic"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "oauth2d",
	Description:      "A minimal OAuth2 authorization server issuing JWT access and refresh tokens.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
