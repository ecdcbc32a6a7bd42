package identity

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var consentScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// AuthURLBuilder produces the Google consent screen URL.
type AuthURLBuilder struct {
	config *oauth2.Config
}

// NewAuthURLBuilder creates a builder for the given OAuth client.
func NewAuthURLBuilder(clientID, clientSecret, redirectURL string) *AuthURLBuilder {
	return &AuthURLBuilder{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       consentScopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent URL carrying state.
func (b *AuthURLBuilder) AuthURL(state string) string {
	return b.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}
