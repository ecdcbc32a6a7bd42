package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/alumni-server/internal/encryption"
)

const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

// AuthConfig carries the secrets, lifetimes and policy flags the auth
// components are constructed with. It is built once at startup.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	EncryptionKey  string
	GoogleClientID string
	BcryptCost     int

	VerificationTTL time.Duration
	ResetTTL        time.Duration

	// AutoCreateOnGoogleLogin lets Google login create an account for an
	// unknown email when department and class year are supplied.
	AutoCreateOnGoogleLogin bool
	// LinkGoogleByEmail attaches the asserted Google subject to a GOOGLE
	// account found by email that has none yet.
	LinkGoogleByEmail bool
	// EncryptSessionTokens seals issued JWTs with the encryption key.
	EncryptSessionTokens bool
}

// Validate checks the secrets the process cannot run without.
func (c AuthConfig) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if !encryption.ValidateKey(c.EncryptionKey) {
		errs = append(errs, fmt.Errorf("invalid encryption key: %w", encryption.ErrInvalidKey))
	}
	return errors.Join(errs...)
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.VerificationTTL <= 0 {
		c.VerificationTTL = DefaultVerificationTTL
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = DefaultResetTTL
	}
	return c
}
