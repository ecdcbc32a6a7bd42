package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
)

const (
	msgMissingToken = "authorization token not found"
	msgInvalidToken = "invalid or expired token"
)

// TokenAuthenticator resolves session claims from an access token.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (model.SessionClaims, error)
}

// Authenticate validates access tokens and injects session claims into context.
type Authenticate struct {
	tokens         TokenAuthenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokens TokenAuthenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid access token with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := accessToken(r)
		if tokenString == "" {
			response.Fail(w, http.StatusUnauthorized, msgMissingToken, nil)
			return
		}

		claims, err := m.tokens.Authenticate(r.Context(), tokenString)
		if err != nil {
			m.logger.Debug("Authenticate middleware: token rejected",
				"path", r.URL.Path,
				"error", err.Error())
			response.Fail(w, http.StatusUnauthorized, msgInvalidToken, nil)
			return
		}

		ctx := m.contextManager.SetClaimsToContext(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessToken reads a bearer token, falling back to the access cookie.
func accessToken(r *http.Request) string {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(response.AccessCookie); err == nil {
		return c.Value
	}
	return ""
}
