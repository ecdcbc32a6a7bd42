package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/alumni-server/internal/model"
)

// TokenManager is a mock type for the model.TokenManager interface.
type TokenManager struct {
	mock.Mock
}

var _ model.TokenManager = (*TokenManager)(nil)

func (_m *TokenManager) GenerateAccessToken(claims model.SessionClaims) (string, error) {
	ret := _m.Called(claims)
	return ret.String(0), ret.Error(1)
}

func (_m *TokenManager) GenerateRefreshToken(claims model.SessionClaims) (string, error) {
	ret := _m.Called(claims)
	return ret.String(0), ret.Error(1)
}

func (_m *TokenManager) ParseAccessToken(token string) (model.SessionClaims, error) {
	ret := _m.Called(token)
	return ret.Get(0).(model.SessionClaims), ret.Error(1)
}

func (_m *TokenManager) ParseRefreshToken(token string) (model.SessionClaims, error) {
	ret := _m.Called(token)
	return ret.Get(0).(model.SessionClaims), ret.Error(1)
}

// TokenSealer is a mock type for the model.TokenSealer interface.
type TokenSealer struct {
	mock.Mock
}

var _ model.TokenSealer = (*TokenSealer)(nil)

func (_m *TokenSealer) Encrypt(plaintext string) (string, error) {
	ret := _m.Called(plaintext)
	return ret.String(0), ret.Error(1)
}

func (_m *TokenSealer) Decrypt(blob string) (string, error) {
	ret := _m.Called(blob)
	return ret.String(0), ret.Error(1)
}

// Notifier is a mock type for the model.Notifier interface.
type Notifier struct {
	mock.Mock
}

var _ model.Notifier = (*Notifier)(nil)

func (_m *Notifier) SendVerification(ctx context.Context, to, name, token string) error {
	ret := _m.Called(ctx, to, name, token)
	return ret.Error(0)
}

func (_m *Notifier) SendPasswordReset(ctx context.Context, to, name, token string) error {
	ret := _m.Called(ctx, to, name, token)
	return ret.Error(0)
}

func (_m *Notifier) SendWelcome(ctx context.Context, to, name string) error {
	ret := _m.Called(ctx, to, name)
	return ret.Error(0)
}

// IdentityVerifier is a mock type for the model.IdentityVerifier interface.
type IdentityVerifier struct {
	mock.Mock
}

var _ model.IdentityVerifier = (*IdentityVerifier)(nil)

func (_m *IdentityVerifier) Verify(ctx context.Context, idToken string) (model.FederatedIdentity, error) {
	ret := _m.Called(ctx, idToken)
	return ret.Get(0).(model.FederatedIdentity), ret.Error(1)
}
