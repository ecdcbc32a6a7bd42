package model

import "github.com/google/uuid"

// SessionClaims are the claims carried by access and refresh tokens.
type SessionClaims struct {
	UserID     uuid.UUID
	Email      string
	Role       Role
	AuthMethod AuthMethod
}

// TokenManager signs and validates session tokens.
type TokenManager interface {
	GenerateAccessToken(claims SessionClaims) (string, error)
	GenerateRefreshToken(claims SessionClaims) (string, error)
	ParseAccessToken(token string) (SessionClaims, error)
	ParseRefreshToken(token string) (SessionClaims, error)
}

// TokenSealer wraps signed tokens before they leave the server.
type TokenSealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}
