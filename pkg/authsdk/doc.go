/*
Package authsdk is a Go client for the tabauth service.

# SDKClient vs Session

SDKClient calls the public endpoints. Session wraps a token pair and calls
the protected ones, refreshing the access token shortly before it expires.

	client := authsdk.NewSDKClient("https://auth.example.com")

	health, err := client.GetReadiness(ctx)

	session, err := client.AuthenticateWithPassword(ctx, "leandro", password)
	me, err := session.Me(ctx)

A pair obtained elsewhere can be resumed with NewSessionFromTokens, and
Signin and Refresh are available directly when the caller wants to manage
tokens itself.

# Errors

Non-2xx responses are decoded into *APIError. The predefined values match
on Code, so

	if errors.Is(err, authsdk.ErrInvalidGrant) {
		// refresh token rejected, sign in again
	}

works for any response carrying the same code. A signin failure is always
ErrBadCredentials, whatever actually went wrong.

The same APIError values are written by the server, via WriteError, so the
wire format is defined in one place.
*/
package authsdk
