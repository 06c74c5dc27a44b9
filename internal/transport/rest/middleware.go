package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/avazquez/product-service/pkg/auth"
	"github.com/avazquez/product-service/pkg/web"
)

// adminRole is the role required for catalog mutations.
const adminRole = "ADMIN"

// RequireAdmin verifies the Bearer token and checks that its role claim is
// ADMIN. A missing or invalid token yields 401, a valid token with the wrong
// role yields 403.
func RequireAdmin(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	mLogger := logger.With("component", "auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				web.RespondError(w, mLogger, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				web.RespondError(w, mLogger, http.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
				return
			}

			token, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				mLogger.WarnContext(r.Context(), "Token verification failed", "error", err)
				web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			role, err := auth.Role(token)
			if err != nil || role != adminRole {
				mLogger.WarnContext(r.Context(), "Role check failed", "role", role)
				web.RespondError(w, mLogger, http.StatusForbidden, "Forbidden: You cannot access this data.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AllowAll is the no-op replacement for RequireAdmin when auth is disabled.
func AllowAll() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}
