package middleware

import (
	"net/http"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/model"
)

// RequireAdmin allows only authenticated administrators through. It must run
// after Authenticate.
func RequireAdmin(contextManager model.ContextManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := contextManager.GetClaimsFromContext(r.Context())
			if !ok {
				response.Fail(w, http.StatusUnauthorized, msgMissingToken, nil)
				return
			}
			if claims.Role != model.RoleAdmin {
				response.Fail(w, http.StatusForbidden, "administrator access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
