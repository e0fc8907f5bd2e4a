package middleware

import (
	"net/http"
	"strings"

	"ultra-eval/internal/auth"
	"ultra-eval/internal/config"
)

// AdminMiddleware grants access to the admin surface. A caller qualifies
// when their token carries the admin role claim or their verified email is
// on the configured allow-list.
type AdminMiddleware struct {
	allowedEmails map[string]struct{}
}

// NewAdminMiddleware creates a new admin middleware
func NewAdminMiddleware(cfg *config.AdminConfig) *AdminMiddleware {
	allowed := make(map[string]struct{}, len(cfg.Emails))
	for _, email := range cfg.Emails {
		allowed[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &AdminMiddleware{
		allowedEmails: allowed,
	}
}

// RequireAdmin checks admin authorization. It assumes Authenticate has
// already run.
func (m *AdminMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := GetUserEmail(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		if role, ok := GetUserRole(r); ok && role == auth.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		if _, allowed := m.allowedEmails[strings.ToLower(email)]; !allowed {
			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}
