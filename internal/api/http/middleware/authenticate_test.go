package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/alumni-server/internal/api/http/context"
	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/testutil"
)

type authenticatorFunc func(ctx context.Context, token string) (model.SessionClaims, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (model.SessionClaims, error) {
	return f(ctx, token)
}

func claimsEcho(cm model.ContextManager, got *model.SessionClaims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := cm.GetClaimsFromContext(r.Context())
		if ok {
			*got = claims
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	tokens := authenticatorFunc(func(_ context.Context, token string) (model.SessionClaims, error) {
		if token == "good" {
			return model.SessionClaims{UserID: userID, Role: model.RoleUser}, nil
		}
		return model.SessionClaims{}, errors.New("bad token")
	})
	cm := httpctx.NewManager()
	mw := NewAuthenticate(tokens, cm, testutil.MakeNoopLogger())

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "lower-case scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "bearer good") },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: response.AccessCookie, Value: "good"}) },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "missing",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.SessionClaims
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			mw.Handle(claimsEcho(cm, &got)).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, userID, got.UserID)
			} else {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	cm := httpctx.NewManager()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireAdmin(cm)(next)

	tests := []struct {
		name       string
		claims     *model.SessionClaims
		wantStatus int
	}{
		{name: "unauthenticated", wantStatus: http.StatusUnauthorized},
		{name: "user", claims: &model.SessionClaims{UserID: uuid.New(), Role: model.RoleUser}, wantStatus: http.StatusForbidden},
		{name: "admin", claims: &model.SessionClaims{UserID: uuid.New(), Role: model.RoleAdmin}, wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
			if tt.claims != nil {
				req = req.WithContext(cm.SetClaimsToContext(req.Context(), *tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
