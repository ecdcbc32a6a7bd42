package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthMethod identifies how an account authenticates.
type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "EMAIL"
	AuthMethodGoogle AuthMethod = "GOOGLE"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserStore defines persistence operations for users and their profiles.
// Lookups never return soft-deleted users unless stated otherwise.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByGoogleID(ctx context.Context, googleID string) (User, error)

	// CreateWithProfile inserts the user and its profile in one transaction.
	// It returns ErrConflict when the email or google id is already taken.
	CreateWithProfile(ctx context.Context, user User, profile AlumniProfile) (User, AlumniProfile, error)

	// ConsumeVerificationToken marks the matching user verified and clears the token,
	// provided the token is still unexpired at now. Returns ErrNotFound otherwise.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (User, error)
	// ConsumeResetToken stores passwordHash for the user holding the unexpired
	// reset token and clears the token. Returns ErrNotFound otherwise.
	ConsumeResetToken(ctx context.Context, token string, passwordHash string, now time.Time) (User, error)

	SetVerificationToken(ctx context.Context, userID uuid.UUID, token SingleUseToken) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token SingleUseToken) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID, name string) (User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role Role) (User, error)
	SoftDelete(ctx context.Context, userID uuid.UUID, at time.Time) error
	Restore(ctx context.Context, userID uuid.UUID) error

	// List returns one page of accounts matching q together with the total
	// number of matches. Deleted accounts are listed only when q.Deleted is set,
	// and then exclusively.
	List(ctx context.Context, q UserQuery) ([]UserWithProfile, int, error)
}

// UserQuery selects a page of accounts.
type UserQuery struct {
	Page  int
	Limit int

	// Search matches name, email or profile full name, case-insensitively.
	Search     string
	Department Department
	ClassYear  int
	Deleted    bool
}

// Offset returns the number of rows skipped before the page.
func (q UserQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// UserWithProfile is an account joined with its profile, if any.
type UserWithProfile struct {
	User    User
	Profile *AlumniProfile
}

// User represents an account with its credential and recovery state.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          string
	PasswordHash  *string
	GoogleID      *string
	AuthMethod    AuthMethod
	Role          Role
	EmailVerified bool
	Verification  SingleUseToken
	Reset         SingleUseToken
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// HasPassword reports whether the user can authenticate by password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
