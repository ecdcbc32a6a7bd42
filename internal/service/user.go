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
)

// Users manages account roles, lifecycle and alumni profiles.
type Users struct {
	userStore    model.UserStore
	profileStore model.ProfileStore
	hasher       PasswordHasher
	logger       *logger.Logger
	now          func() time.Time
}

func NewUsers(userStore model.UserStore, profileStore model.ProfileStore, hasher PasswordHasher, logger *logger.Logger) *Users {
	return &Users{
		userStore:    userStore,
		profileStore: profileStore,
		hasher:       hasher,
		logger:       logger,
		now:          time.Now,
	}
}

// Page bounds for account listings.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// UserPage is one page of an account listing.
type UserPage struct {
	Users      []model.UserWithProfile
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// AdminCreateInput is a validated account created by an administrator.
// An empty Password creates an account that signs in with Google.
type AdminCreateInput struct {
	Email      string
	Name       string
	FullName   string
	Password   string
	Role       model.Role
	Department model.Department
	ClassYear  int
	StudentID  *string
}

// Me is an account with its profile.
type Me struct {
	User    model.User
	Profile *model.AlumniProfile
}

func (s *Users) GetMe(ctx context.Context, userID uuid.UUID) (Me, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return Me{}, err
	}

	profile, err := s.profileStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Me{User: user}, nil
		}
		return Me{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return Me{User: user, Profile: &profile}, nil
}

func (s *Users) GetProfile(ctx context.Context, userID uuid.UUID) (model.AlumniProfile, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return model.AlumniProfile{}, err
	}
	profile, err := s.profileStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.AlumniProfile{}, model.NewError(model.ErrNotFound, "profile not found")
		}
		return model.AlumniProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies patch to the user's profile. The user row is not touched.
func (s *Users) UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (model.AlumniProfile, error) {
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return model.AlumniProfile{}, err
	}

	updated, err := s.profileStore.Update(ctx, patch.Apply(current))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.AlumniProfile{}, model.NewError(model.ErrNotFound, "profile not found")
		}
		return model.AlumniProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("User service: profile updated", "user_id", userID)
	return updated, nil
}

func (s *Users) UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, model.NewValidationError(model.FieldError{Field: "role", Message: "role must be USER or ADMIN"})
	}
	if actorID == userID && role != model.RoleAdmin {
		return model.User{}, model.NewError(model.ErrForbidden, "administrators cannot demote themselves")
	}

	user, err := s.userStore.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.NewError(model.ErrNotFound, msgUserNotFound)
		}
		return model.User{}, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("User service: role updated",
		"user_id", userID,
		"actor_id", actorID,
		"role", role)
	return user, nil
}

// SoftDelete hides the account from every lookup. The profile is kept.
func (s *Users) SoftDelete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return model.NewError(model.ErrForbidden, "administrators cannot delete themselves")
	}
	if err := s.userStore.SoftDelete(ctx, userID, s.now()); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewError(model.ErrNotFound, msgUserNotFound)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User service: user deleted", "user_id", userID, "actor_id", actorID)
	return nil
}

func (s *Users) Restore(ctx context.Context, userID uuid.UUID) error {
	if err := s.userStore.Restore(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewError(model.ErrNotFound, "no deleted user with this id")
		}
		return fmt.Errorf("failed to restore user: %w", err)
	}
	s.logger.Info("User service: user restored", "user_id", userID)
	return nil
}

// GetByID returns an active account with its profile.
func (s *Users) GetByID(ctx context.Context, userID uuid.UUID) (Me, error) {
	return s.GetMe(ctx, userID)
}

// List returns active accounts, newest first.
func (s *Users) List(ctx context.Context, q model.UserQuery) (UserPage, error) {
	q.Deleted = false
	return s.list(ctx, q)
}

// ListDeleted returns soft-deleted accounts, most recently deleted first.
func (s *Users) ListDeleted(ctx context.Context, page, limit int) (UserPage, error) {
	return s.list(ctx, model.UserQuery{Page: page, Limit: limit, Deleted: true})
}

func (s *Users) list(ctx context.Context, q model.UserQuery) (UserPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	q.Limit = min(q.Limit, MaxPageLimit)

	users, total, err := s.userStore.List(ctx, q)
	if err != nil {
		return UserPage{}, fmt.Errorf("failed to list users: %w", err)
	}
	return UserPage{
		Users:      users,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

// AdminCreate creates a verified account and its profile in one step.
func (s *Users) AdminCreate(ctx context.Context, actorID uuid.UUID, in AdminCreateInput) (model.User, model.AlumniProfile, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err == nil {
		return model.User{}, model.AlumniProfile{}, duplicateFor(existing)
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return model.User{}, model.AlumniProfile{}, model.NewValidationError(model.FieldError{Field: "role", Message: "role must be USER or ADMIN"})
	}

	now := s.now()
	user := model.User{
		ID:            uuid.New(),
		Email:         email,
		Name:          strings.TrimSpace(in.Name),
		AuthMethod:    model.AuthMethodGoogle,
		Role:          role,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return model.User{}, model.AlumniProfile{}, err
		}
		user.PasswordHash = &hash
		user.AuthMethod = model.AuthMethodEmail
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = user.Name
	}
	profile := model.AlumniProfile{
		ID:         uuid.New(),
		UserID:     user.ID,
		FullName:   fullName,
		Department: in.Department,
		ClassYear:  in.ClassYear,
		StudentID:  in.StudentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	savedUser, savedProfile, err := s.userStore.CreateWithProfile(ctx, user, profile)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.User{}, model.AlumniProfile{}, model.NewError(model.ErrDuplicateAccount, msgRegistered)
		}
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User service: user created by admin",
		"user_id", savedUser.ID,
		"actor_id", actorID,
		"role", role,
		"auth_method", savedUser.AuthMethod)
	return savedUser, savedProfile, nil
}

func (s *Users) getUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.NewError(model.ErrNotFound, msgUserNotFound)
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}
