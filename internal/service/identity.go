package service

import (
	"context"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/pkg/auth"
)

// Caller is the signed-in host on whose behalf an operation runs.
type Caller struct {
	ID    string
	Email string
}

// Identity resolves the current caller. HTTP requests resolve it from the
// verified JWT; tests inject a fixed caller.
type Identity interface {
	Caller(ctx context.Context) (Caller, error)
}

type claimsKey struct{}

// WithClaims stores verified token claims on ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// ContextIdentity reads the caller from JWT claims placed on the context.
type ContextIdentity struct{}

func (ContextIdentity) Caller(ctx context.Context) (Caller, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil || claims.Subject == "" {
		return Caller{}, domain.ErrUnauthenticated
	}
	return Caller{ID: claims.Subject, Email: claims.Email}, nil
}

// StaticIdentity always resolves to the same caller.
type StaticIdentity Caller

func (s StaticIdentity) Caller(context.Context) (Caller, error) {
	if s.ID == "" {
		return Caller{}, domain.ErrUnauthenticated
	}
	return Caller(s), nil
}
