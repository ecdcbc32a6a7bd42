package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

// Claims represents JWT claims with token type and subject attributes.
type Claims struct {
	jwt.RegisteredClaims
	UserID     uuid.UUID        `json:"user_id"`
	Email      string           `json:"email"`
	Role       model.Role       `json:"role"`
	AuthMethod model.AuthMethod `json:"auth_method"`
	TokenType  string           `json:"typ"`
}

var ErrTokenTypeMismatch = errors.New("token type mismatch")

// Options holds the per-class secrets and lifetimes.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWT implements TokenManager backed by symmetric HMAC with a distinct
// secret per token class.
type JWT struct {
	access  signer
	refresh signer
	now     func() time.Time
}

type signer struct {
	secret []byte
	ttl    time.Duration
	typ    string
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	typeAccess        = "access"
	typeRefresh       = "refresh"
)

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a new JWT token manager.
func NewJWT(opts Options) *JWT {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	return &JWT{
		access:  signer{secret: []byte(opts.AccessSecret), ttl: opts.AccessTTL, typ: typeAccess},
		refresh: signer{secret: []byte(opts.RefreshSecret), ttl: opts.RefreshTTL, typ: typeRefresh},
		now:     time.Now,
	}
}

// GenerateAccessToken creates a short-lived access token.
func (j *JWT) GenerateAccessToken(claims model.SessionClaims) (string, error) {
	return j.generate(j.access, claims)
}

// GenerateRefreshToken creates a long-lived refresh token.
func (j *JWT) GenerateRefreshToken(claims model.SessionClaims) (string, error) {
	return j.generate(j.refresh, claims)
}

// ParseAccessToken validates an access token and returns its claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.SessionClaims, error) {
	return j.parse(j.access, tokenString)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (j *JWT) ParseRefreshToken(tokenString string) (model.SessionClaims, error) {
	return j.parse(j.refresh, tokenString)
}

func (j *JWT) generate(s signer, claims model.SessionClaims) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:     claims.UserID,
		Email:      claims.Email,
		Role:       claims.Role,
		AuthMethod: claims.AuthMethod,
		TokenType:  s.typ,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", s.typ, err)
	}

	return tokenString, nil
}

func (j *JWT) parse(s signer, tokenString string) (model.SessionClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return model.SessionClaims{}, fmt.Errorf("failed to parse %s token: %w", s.typ, err)
	}
	if !token.Valid {
		return model.SessionClaims{}, fmt.Errorf("%s token is invalid", s.typ)
	}
	if claims.TokenType != s.typ {
		return model.SessionClaims{}, fmt.Errorf("%w: %s", ErrTokenTypeMismatch, claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return model.SessionClaims{}, fmt.Errorf("%s token has no subject", s.typ)
	}
	return model.SessionClaims{
		UserID:     claims.UserID,
		Email:      claims.Email,
		Role:       claims.Role,
		AuthMethod: claims.AuthMethod,
	}, nil
}
