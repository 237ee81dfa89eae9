package auth

import (
	"context"
	"crypto/subtle"
)

// bearerAuthenticator wraps a user-provided validation function.
type bearerAuthenticator struct {
	validateFunc func(token string) (identity string, err error)
}

// BearerAuth creates an Authenticator from a validation function.
//
// Example:
//
//	auth := BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", vtable.ErrUnauthorized
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{
		validateFunc: validateFunc,
	}
}

// Authenticate implements Authenticator for bearerAuthenticator.
func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.validateFunc(token)
}

// StaticTokens returns an Authenticator accepting a fixed set of tokens,
// mapped to the identity reported for each. The map is copied.
func StaticTokens(tokens map[string]string) Authenticator {
	known := make(map[string]string, len(tokens))
	for token, identity := range tokens {
		known[token] = identity
	}
	return BearerAuth(func(token string) (string, error) {
		for candidate, identity := range known {
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
				return identity, nil
			}
		}
		return "", ErrUnauthenticated
	})
}
