package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Tokens carry the subject code and timing only; role and permissions are
// derived server-side on every request.
type Claims struct {
	jwt.RegisteredClaims
}
