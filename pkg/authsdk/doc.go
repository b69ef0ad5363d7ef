/*
Package authsdk is a Go client for the oauth2d authorization server.

# Overview

SDKClient performs the grants and calls the endpoints that authenticate the
OAuth2 client itself (HTTP Basic). Session holds the tokens of one grant
and calls the resource endpoint with them, refreshing the access token when
it expires.

	client := authsdk.NewSDKClient("http://localhost:8080")
	trusted := authsdk.ClientCredentials{ID: "trusted", Secret: "secret"}

	// Password grant
	tokens, err := client.PasswordGrant(ctx, trusted, "roy", "42", []string{"read"})

	// Verify a token server side (trusted clients only)
	claims, err := client.CheckToken(ctx, trusted, tokens.AccessToken)

	// Verification key, anonymously
	key, err := client.TokenKey(ctx, authsdk.ClientCredentials{})

# Grants

  - PasswordGrant: trusted clients exchange a user's credentials for tokens
  - ClientCredentialsGrant: a confidential client authenticates as itself
  - AuthorizationCodeGrant: exchange a code from AuthorizeWithPassword
  - RefreshGrant: trade a refresh token for a new pair; the old one is spent

Public clients use the implicit flow through AuthorizeImplicit.

# Sessions

	session, err := client.AuthenticateWithPassword(ctx, trusted, "roy", "42", nil)
	principal, err := session.Resource(ctx)

Before each call a Session checks whether its access token expires within
30 seconds and, if so, uses its refresh token first. Sessions from the
client_credentials grant have no refresh token and fail once the token
expires.

# Errors

Every non-success response is returned as an *OAuth2Error carrying the
status, the error code and its description:

	_, err := client.PasswordGrant(ctx, confidential, "roy", "42", nil)
	var oerr *authsdk.OAuth2Error
	if errors.As(err, &oerr) && oerr.Code == authsdk.ErrorCodeInvalidClient {
		// Unauthorized grant type: password
	}

The server writes its errors with the same type, so both sides agree on the
wire format.
*/
package authsdk
