package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxClaims ctxKey = iota

// WithClaims stores the verified session claims on ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func ClaimsFrom(ctx context.Context) (Claims, error) {
	if c, ok := ctx.Value(ctxClaims).(Claims); ok && c.Subject != "" {
		return c, nil
	}
	return Claims{}, errors.New("session claims not in context")
}
