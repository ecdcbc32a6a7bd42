package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/password"
)

// User-visible messages shared with the HTTP boundary.
const (
	MsgForgotPasswordSent   = "If the email is registered, a password reset link has been sent"
	MsgVerificationResent   = "If the account exists and is not verified, a new verification email has been sent"
	msgInvalidLogin         = "email or password invalid"
	msgUnverified           = "please verify your email before logging in"
	msgRegisteredViaGoogle  = "email already registered via Google"
	msgRegistered           = "email already registered"
	msgInvalidVerification  = "verification token is invalid or expired"
	msgInvalidReset         = "reset token is invalid or expired"
	msgGoogleNoPassword     = "cannot change password for Google account"
	msgWrongCurrentPassword = "current password is incorrect"
	msgUserNotFound         = "user not found"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// RegisterInput is a validated email registration request.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Department model.Department
	ClassYear  int
	StudentID  *string
}

// Session is an authenticated user with freshly issued tokens.
type Session struct {
	User    model.User
	Profile *model.AlumniProfile
	Tokens  TokenPair
}

type Auth struct {
	userStore model.UserStore
	hasher    PasswordHasher
	tokens    *TokenService
	identity  model.IdentityVerifier
	notifier  model.Notifier
	cfg       AuthConfig
	logger    *logger.Logger

	now      func() time.Time
	newToken func() (string, error)
}

func NewAuth(
	cfg AuthConfig,
	userStore model.UserStore,
	hasher PasswordHasher,
	tokens *TokenService,
	identity model.IdentityVerifier,
	notifier model.Notifier,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore: userStore,
		hasher:    hasher,
		tokens:    tokens,
		identity:  identity,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		now:       time.Now,
		newToken:  func() (string, error) { return password.GenerateToken(password.TokenBytes) },
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) Register(ctx context.Context, in RegisterInput) (model.User, model.AlumniProfile, error) {
	email := NormalizeEmail(in.Email)
	a.logger.Debug("Auth service: starting user registration", "email", email)

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err == nil {
		a.logger.Info("Auth service: user already exists", "email", email)
		return model.User{}, model.AlumniProfile{}, duplicateFor(existing)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, model.AlumniProfile{}, err
	}
	verification, err := a.issueSingleUse(a.cfg.VerificationTTL)
	if err != nil {
		return model.User{}, model.AlumniProfile{}, err
	}

	now := a.now()
	user := model.User{
		ID:            uuid.New(),
		Email:         email,
		Name:          strings.TrimSpace(in.Name),
		PasswordHash:  &hash,
		AuthMethod:    model.AuthMethodEmail,
		Role:          model.RoleUser,
		EmailVerified: false,
		Verification:  verification,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	profile := model.AlumniProfile{
		ID:         uuid.New(),
		UserID:     user.ID,
		FullName:   user.Name,
		Department: in.Department,
		ClassYear:  in.ClassYear,
		StudentID:  in.StudentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	savedUser, savedProfile, err := a.userStore.CreateWithProfile(ctx, user, profile)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			a.logger.Info("Auth service: registration lost a duplicate race", "email", email)
			return model.User{}, model.AlumniProfile{}, model.NewError(model.ErrDuplicateAccount, msgRegistered)
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to create user: %w", err)
	}

	if err := a.notifier.SendVerification(ctx, savedUser.Email, savedUser.Name, verification.Value); err != nil {
		a.logger.Error("Auth service: failed to send verification email",
			"user_id", savedUser.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: user registered", "user_id", savedUser.ID)
	return savedUser, savedProfile, nil
}

func (a *Auth) Login(ctx context.Context, email, pass string) (Session, error) {
	email = NormalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err != nil || !user.HasPassword() {
		a.logger.Info("Auth service: login rejected", "email", email)
		return Session{}, model.NewError(model.ErrInvalidCredential, msgInvalidLogin)
	}

	ok, err := a.hasher.Verify(pass, *user.PasswordHash)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		a.logger.Info("Auth service: login rejected", "email", email)
		return Session{}, model.NewError(model.ErrInvalidCredential, msgInvalidLogin)
	}

	if !user.EmailVerified {
		return Session{}, model.NewError(model.ErrUnverifiedAccount, msgUnverified)
	}

	pair, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("Auth service: user logged in", "user_id", user.ID)
	return Session{User: user, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return a.tokens.RenewAccess(ctx, refreshToken)
}

func (a *Auth) VerifyEmail(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, model.NewError(model.ErrInvalidCredential, msgInvalidVerification)
	}

	user, err := a.userStore.ConsumeVerificationToken(ctx, token, a.now())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.NewError(model.ErrInvalidCredential, msgInvalidVerification)
		}
		return model.User{}, fmt.Errorf("failed to consume verification token: %w", err)
	}

	if err := a.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
		a.logger.Error("Auth service: failed to send welcome email",
			"user_id", user.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: email verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification replaces the verification token of an unverified EMAIL
// account and mails it. The outcome is not revealed to the caller.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.AuthMethod != model.AuthMethodEmail || user.EmailVerified {
		return nil
	}

	token, err := a.issueSingleUse(a.cfg.VerificationTTL)
	if err != nil {
		a.logger.Error("Auth service: failed to generate verification token", "error", err.Error())
		return nil
	}
	if err := a.userStore.SetVerificationToken(ctx, user.ID, token); err != nil {
		a.logger.Error("Auth service: failed to store verification token",
			"user_id", user.ID,
			"error", err.Error())
		return nil
	}
	if err := a.notifier.SendVerification(ctx, user.Email, user.Name, token.Value); err != nil {
		a.logger.Error("Auth service: failed to send verification email",
			"user_id", user.ID,
			"error", err.Error())
	}
	return nil
}

// ForgotPassword issues a reset token for a password-capable account. Its
// observable result is identical for every email.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if !user.HasPassword() {
		return nil
	}

	token, err := a.issueSingleUse(a.cfg.ResetTTL)
	if err != nil {
		a.logger.Error("Auth service: failed to generate reset token", "error", err.Error())
		return nil
	}
	if err := a.userStore.SetResetToken(ctx, user.ID, token); err != nil {
		a.logger.Error("Auth service: failed to store reset token",
			"user_id", user.ID,
			"error", err.Error())
		return nil
	}
	if err := a.notifier.SendPasswordReset(ctx, user.Email, user.Name, token.Value); err != nil {
		a.logger.Error("Auth service: failed to send reset email",
			"user_id", user.ID,
			"error", err.Error())
	}
	return nil
}

func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return model.NewError(model.ErrInvalidCredential, msgInvalidReset)
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user, err := a.userStore.ConsumeResetToken(ctx, token, hash, a.now())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewError(model.ErrInvalidCredential, msgInvalidReset)
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	a.logger.Info("Auth service: password reset", "user_id", user.ID)
	return nil
}

// Actor is the authenticated subject performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

// ChangePassword sets a new password on targetID. The current password is
// required unless an administrator acts on another account.
func (a *Auth) ChangePassword(ctx context.Context, actor Actor, targetID uuid.UUID, currentPassword, newPassword string) error {
	actingOnOther := actor.ID != targetID
	if actingOnOther && actor.Role != model.RoleAdmin {
		return model.NewError(model.ErrForbidden, "cannot change another user's password")
	}

	user, err := a.userStore.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewError(model.ErrNotFound, msgUserNotFound)
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if !user.HasPassword() {
		return model.NewError(model.ErrForbidden, msgGoogleNoPassword)
	}

	if !actingOnOther {
		ok, err := a.hasher.Verify(currentPassword, *user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return model.NewError(model.ErrInvalidCredential, msgWrongCurrentPassword)
		}
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := a.userStore.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password changed",
		"user_id", user.ID,
		"actor_id", actor.ID)
	return nil
}

func (a *Auth) issueSingleUse(ttl time.Duration) (model.SingleUseToken, error) {
	value, err := a.newToken()
	if err != nil {
		return model.SingleUseToken{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return model.SingleUseToken{Value: value, ExpiresAt: password.ExpiryFromNow(a.now(), ttl)}, nil
}

func duplicateFor(existing model.User) error {
	if existing.AuthMethod == model.AuthMethodGoogle {
		return model.NewError(model.ErrDuplicateAccount, msgRegisteredViaGoogle)
	}
	return model.NewError(model.ErrDuplicateAccount, msgRegistered)
}
