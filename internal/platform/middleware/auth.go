package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"pharmatrace/pkg/domain"
	"pharmatrace/pkg/requestcontext"
)

// TokenVerifier validates a bearer token from the surrounding session layer
// and returns the caller identity it vouches for.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*CallerClaims, error)
}

// CallerClaims is what the session layer asserts about a caller: its ledger
// address and the roles the identity registries have verified for it.
type CallerClaims struct {
	Actor domain.Actor
	Roles []domain.Role
}

// RequireAuth rejects requests without a valid bearer token and injects the
// verified caller identity and role set into the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Actor)
			ctx = requestcontext.WithRoles(ctx, domain.NewRoleSet(claims.Roles...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
