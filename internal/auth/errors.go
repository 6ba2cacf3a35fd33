package auth

import "errors"

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, unexpected
	// algorithms and missing required claims.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidCredentials is returned for every login failure so callers
	// cannot tell an unknown code from a wrong secret.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrValidation         = errors.New("auth: validation failed")
)
