package vtable

import (
	"context"

	"github.com/hugr-lab/airport-vtable/auth"
)

// Authenticator validates bearer tokens and returns user identity.
type Authenticator = auth.Authenticator

// BearerAuth creates an Authenticator from a validation function.
//
//	a := vtable.BearerAuth(func(token string) (string, error) {
//	    if token != secret {
//	        return "", vtable.ErrUnauthorized
//	    }
//	    return "admin", nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validateFunc)
}

// StaticTokens creates an Authenticator from a fixed token to identity map.
func StaticTokens(tokens map[string]string) Authenticator {
	return auth.StaticTokens(tokens)
}

// NoAuth returns an Authenticator that allows all requests without validation.
// Useful for development and testing. DO NOT use in production.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// IdentityFromContext retrieves the authenticated identity from a request context.
// Plugins receive this context in Generate and may use it to scope their rows.
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
