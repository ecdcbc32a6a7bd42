package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

const (
	msgGoogleEmailUnverified   = "Google has not verified this email"
	msgRegisteredViaPassword   = "email is registered with password login; log in with your password"
	msgGoogleNotRegistered     = "email is not registered; please register first"
	msgGoogleAlreadyRegistered = "Google account is already registered; please log in"
	msgGoogleAccountMismatch   = "email is linked to a different Google account"
)

// GoogleSignup carries the academic attributes needed to create an account
// from a Google identity.
type GoogleSignup struct {
	Department model.Department
	ClassYear  int
}

// GoogleLogin authenticates with a Google ID token. signup is only consulted
// when the account does not exist and auto-creation is enabled.
func (a *Auth) GoogleLogin(ctx context.Context, idToken string, signup *GoogleSignup) (Session, error) {
	identity, err := a.verifyIdentity(ctx, idToken)
	if err != nil {
		return Session{}, err
	}

	user, err := a.userStore.GetByGoogleID(ctx, identity.SubjectID)
	if err == nil {
		return a.issueSession(ctx, user, nil, "Auth service: Google user logged in")
	}
	if !errors.Is(err, model.ErrNotFound) {
		return Session{}, fmt.Errorf("failed to get user by google id: %w", err)
	}

	user, err = a.userStore.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return a.loginExistingByEmail(ctx, user, identity)
	case !errors.Is(err, model.ErrNotFound):
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.cfg.AutoCreateOnGoogleLogin {
		a.logger.Info("Auth service: Google login for unregistered email", "email", identity.Email)
		return Session{}, model.NewError(model.ErrNotFound, msgGoogleNotRegistered)
	}
	if signup == nil {
		return Session{}, model.NewValidationError(
			model.FieldError{Field: "department", Message: "department is required to create an account"},
			model.FieldError{Field: "classYear", Message: "class year is required to create an account"},
		)
	}
	return a.createGoogleAccount(ctx, identity, *signup)
}

func (a *Auth) loginExistingByEmail(ctx context.Context, user model.User, identity model.FederatedIdentity) (Session, error) {
	if user.AuthMethod == model.AuthMethodEmail {
		return Session{}, model.NewError(model.ErrDuplicateAccount, msgRegisteredViaPassword)
	}
	if user.GoogleID != nil || !a.cfg.LinkGoogleByEmail {
		return Session{}, model.NewError(model.ErrDuplicateAccount, msgGoogleAccountMismatch)
	}

	linked, err := a.userStore.LinkGoogleID(ctx, user.ID, identity.SubjectID, identity.Name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrConflict) {
			return Session{}, model.NewError(model.ErrDuplicateAccount, msgGoogleAccountMismatch)
		}
		return Session{}, fmt.Errorf("failed to link google id: %w", err)
	}
	return a.issueSession(ctx, linked, nil, "Auth service: Google id linked by email")
}

// GoogleRegister creates an account from a Google identity.
func (a *Auth) GoogleRegister(ctx context.Context, idToken string, signup GoogleSignup) (Session, error) {
	identity, err := a.verifyIdentity(ctx, idToken)
	if err != nil {
		return Session{}, err
	}

	_, err = a.userStore.GetByGoogleID(ctx, identity.SubjectID)
	if err == nil {
		return Session{}, model.NewError(model.ErrDuplicateAccount, msgGoogleAlreadyRegistered)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return Session{}, fmt.Errorf("failed to get user by google id: %w", err)
	}

	existing, err := a.userStore.GetByEmail(ctx, identity.Email)
	if err == nil {
		if existing.AuthMethod == model.AuthMethodEmail {
			return Session{}, model.NewError(model.ErrDuplicateAccount, msgRegisteredViaPassword)
		}
		return Session{}, model.NewError(model.ErrDuplicateAccount, msgGoogleAlreadyRegistered)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return a.createGoogleAccount(ctx, identity, signup)
}

func (a *Auth) verifyIdentity(ctx context.Context, idToken string) (model.FederatedIdentity, error) {
	identity, err := a.identity.Verify(ctx, idToken)
	if err != nil {
		a.logger.Info("Auth service: Google token rejected", "error", err.Error())
		return model.FederatedIdentity{}, err
	}
	identity.Email = NormalizeEmail(identity.Email)
	if !identity.EmailVerified {
		return model.FederatedIdentity{}, model.NewError(model.ErrInvalidCredential, msgGoogleEmailUnverified)
	}
	return identity, nil
}

func (a *Auth) createGoogleAccount(ctx context.Context, identity model.FederatedIdentity, signup GoogleSignup) (Session, error) {
	now := a.now()
	googleID := identity.SubjectID
	user := model.User{
		ID:            uuid.New(),
		Email:         identity.Email,
		Name:          identity.Name,
		GoogleID:      &googleID,
		AuthMethod:    model.AuthMethodGoogle,
		Role:          model.RoleUser,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	profile := model.AlumniProfile{
		ID:         uuid.New(),
		UserID:     user.ID,
		FullName:   identity.Name,
		Department: signup.Department,
		ClassYear:  signup.ClassYear,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	savedUser, savedProfile, err := a.userStore.CreateWithProfile(ctx, user, profile)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return Session{}, model.NewError(model.ErrDuplicateAccount, msgGoogleAlreadyRegistered)
		}
		a.logger.Error("Auth service: failed to create Google user",
			"email", identity.Email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	return a.issueSession(ctx, savedUser, &savedProfile, "Auth service: Google user registered")
}

func (a *Auth) issueSession(ctx context.Context, user model.User, profile *model.AlumniProfile, event string) (Session, error) {
	pair, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return Session{}, err
	}
	a.logger.Info(event, "user_id", user.ID)
	return Session{User: user, Profile: profile, Tokens: pair}, nil
}
