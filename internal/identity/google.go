// Package identity verifies Google ID tokens and builds the OAuth consent URL.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/dtroode/alumni-server/internal/model"
)

// Reasons a Google assertion is rejected. They are wrapped in a
// model.Error of kind ErrInvalidCredential.
var (
	ErrMalformedToken   = errors.New("token is not a JWT ID token")
	ErrInvalidSignature = errors.New("token signature does not verify")
	ErrExpiredToken     = errors.New("token is expired")
	ErrWrongAudience    = errors.New("token was issued for a different client")
	ErrWrongIssuer      = errors.New("token was not issued by Google")
	ErrMissingClaims    = errors.New("token lacks subject or email")
)

var googleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// PayloadValidator is satisfied by *idtoken.Validator.
type PayloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier validates Google ID tokens for a single OAuth client id.
type GoogleVerifier struct {
	validator PayloadValidator
	clientID  string
}

var _ model.IdentityVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier creates a verifier backed by Google's published certificates.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}
	return NewGoogleVerifierWithValidator(v, clientID), nil
}

// NewGoogleVerifierWithValidator creates a verifier around an explicit validator.
func NewGoogleVerifierWithValidator(v PayloadValidator, clientID string) *GoogleVerifier {
	return &GoogleVerifier{validator: v, clientID: clientID}
}

// Verify checks signature, audience, issuer and expiry of idToken and returns
// the asserted identity.
func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (model.FederatedIdentity, error) {
	if strings.Count(idToken, ".") != 2 {
		return model.FederatedIdentity{}, invalidAssertion(ErrMalformedToken)
	}

	payload, err := g.validator.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return model.FederatedIdentity{}, classify(err)
	}

	if _, ok := googleIssuers[payload.Issuer]; !ok {
		return model.FederatedIdentity{}, invalidAssertion(ErrWrongIssuer)
	}

	identity := model.FederatedIdentity{
		SubjectID:     payload.Subject,
		Email:         strings.ToLower(strings.TrimSpace(stringClaim(payload.Claims, "email"))),
		Name:          stringClaim(payload.Claims, "name"),
		Picture:       stringClaim(payload.Claims, "picture"),
		EmailVerified: boolClaim(payload.Claims, "email_verified"),
	}
	if identity.SubjectID == "" || identity.Email == "" {
		return model.FederatedIdentity{}, invalidAssertion(ErrMissingClaims)
	}
	if identity.Name == "" {
		identity.Name = strings.SplitN(identity.Email, "@", 2)[0]
	}

	return identity, nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.NewDependencyError("Google token verification is unavailable", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired"):
		return invalidAssertion(ErrExpiredToken)
	case strings.Contains(msg, "audience"):
		return invalidAssertion(ErrWrongAudience)
	case strings.Contains(msg, "segments"), strings.Contains(msg, "unmarshal"), strings.Contains(msg, "base64"):
		return invalidAssertion(ErrMalformedToken)
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "cert"):
		return model.NewDependencyError("Google token verification is unavailable", err)
	default:
		return invalidAssertion(ErrInvalidSignature)
	}
}

func invalidAssertion(reason error) error {
	return &model.Error{
		Kind:    model.ErrInvalidCredential,
		Message: "invalid Google token: " + reason.Error(),
		Err:     reason,
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func boolClaim(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
