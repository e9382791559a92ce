package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/visitor-register/internal/http/response"
	"github.com/diagnosis/visitor-register/internal/service"
	"github.com/diagnosis/visitor-register/pkg/auth"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

// RequireJWT rejects requests without a valid bearer token and stores the
// verified claims on the request context.
func RequireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "Invalid authorization token", response.CodeInvalidToken)
				return
			}
			ctx := service.WithClaims(r.Context(), claims)
			ctx = context.WithValue(ctx, logger.CallerIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	return service.ClaimsFrom(r.Context())
}
