package response

import (
	"net/http"
	"time"
)

// Session cookie names and paths.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	RefreshPath   = "/auth/refresh"
)

// CookiePolicy controls the attributes of session cookies.
type CookiePolicy struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (p CookiePolicy) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		Secure:   p.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetAccessCookie stores the access token cookie.
func (p CookiePolicy) SetAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, p.cookie(AccessCookie, token, "/", p.AccessTTL))
}

// SetSessionCookies stores both session cookies.
func (p CookiePolicy) SetSessionCookies(w http.ResponseWriter, access, refresh string) {
	p.SetAccessCookie(w, access)
	http.SetCookie(w, p.cookie(RefreshCookie, refresh, RefreshPath, p.RefreshTTL))
}

// ClearSessionCookies expires both session cookies.
func (p CookiePolicy) ClearSessionCookies(w http.ResponseWriter) {
	access := p.cookie(AccessCookie, "", "/", 0)
	access.MaxAge = -1
	refresh := p.cookie(RefreshCookie, "", RefreshPath, 0)
	refresh.MaxAge = -1
	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}
