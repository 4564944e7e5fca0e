package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the caller claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the claims we expect from the token validator.
type Claims struct {
	Identity domain.Identity
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context for the handlers downstream.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithIdentity(ctx, claims.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
