package service

import (
	"context"
	"fmt"

	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
)

// TokenPair is an access and refresh token as handed to clients.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues, renews and resolves session tokens. When a sealer is
// configured every token leaving the service is encrypted and every
// presented token is opened first.
type TokenService struct {
	manager model.TokenManager
	sealer  model.TokenSealer
	logger  *logger.Logger
}

// NewTokenService creates a TokenService. sealer may be nil.
func NewTokenService(manager model.TokenManager, sealer model.TokenSealer, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, sealer: sealer, logger: logger}
}

func claimsFor(user model.User) model.SessionClaims {
	return model.SessionClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		AuthMethod: user.AuthMethod,
	}
}

// Issue signs a fresh access and refresh token for user.
func (s *TokenService) Issue(_ context.Context, user model.User) (TokenPair, error) {
	claims := claimsFor(user)

	access, err := s.manager.GenerateAccessToken(claims)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := s.manager.GenerateRefreshToken(claims)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	if access, err = s.seal(access); err != nil {
		return TokenPair{}, err
	}
	if refresh, err = s.seal(refresh); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RenewAccess verifies a refresh token and issues a new access token for the
// same subject. Every verification failure is reported as the same
// invalid-credential error.
func (s *TokenService) RenewAccess(_ context.Context, presentedRefresh string) (string, error) {
	raw, err := s.open(presentedRefresh)
	if err != nil {
		s.logger.Debug("Token service: refresh token could not be opened", "error", err.Error())
		return "", invalidRefresh()
	}

	claims, err := s.manager.ParseRefreshToken(raw)
	if err != nil {
		s.logger.Debug("Token service: refresh token rejected", "error", err.Error())
		return "", invalidRefresh()
	}

	access, err := s.manager.GenerateAccessToken(claims)
	if err != nil {
		return "", fmt.Errorf("issue new access: %w", err)
	}

	return s.seal(access)
}

// Authenticate resolves the claims carried by a presented access token.
func (s *TokenService) Authenticate(_ context.Context, presentedAccess string) (model.SessionClaims, error) {
	raw, err := s.open(presentedAccess)
	if err != nil {
		return model.SessionClaims{}, model.NewError(model.ErrInvalidCredential, "invalid or expired token")
	}
	claims, err := s.manager.ParseAccessToken(raw)
	if err != nil {
		return model.SessionClaims{}, model.NewError(model.ErrInvalidCredential, "invalid or expired token")
	}
	return claims, nil
}

func (s *TokenService) seal(token string) (string, error) {
	if s.sealer == nil {
		return token, nil
	}
	sealed, err := s.sealer.Encrypt(token)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt session token: %w", err)
	}
	return sealed, nil
}

func (s *TokenService) open(token string) (string, error) {
	if s.sealer == nil {
		return token, nil
	}
	return s.sealer.Decrypt(token)
}

func invalidRefresh() error {
	return model.NewError(model.ErrInvalidCredential, "invalid or expired refresh token")
}
