package model

import "context"

// FederatedIdentity is the verified claim set extracted from a provider ID token.
type FederatedIdentity struct {
	SubjectID     string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// IdentityVerifier validates third-party identity assertions.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (FederatedIdentity, error)
}
