package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, name, password_hash, google_id, auth_method, role, email_verified,
	verification_token, verification_expires_at, reset_token, reset_expires_at,
	created_at, updated_at, deleted_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user                              model.User
		passwordHash, googleID            sql.NullString
		verificationToken, resetToken     sql.NullString
		verificationExpires, resetExpires sql.NullTime
		deletedAt                         sql.NullTime
		authMethod, role                  string
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &passwordHash, &googleID, &authMethod, &role, &user.EmailVerified,
		&verificationToken, &verificationExpires, &resetToken, &resetExpires,
		&user.CreatedAt, &user.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	user.AuthMethod = model.AuthMethod(authMethod)
	user.Role = model.Role(role)
	user.PasswordHash = nullableString(passwordHash)
	user.GoogleID = nullableString(googleID)
	user.Verification = singleUse(verificationToken, verificationExpires)
	user.Reset = singleUse(resetToken, resetExpires)
	if deletedAt.Valid {
		t := deletedAt.Time
		user.DeletedAt = &t
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, op, where string, args ...any) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, "id", `id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "email", `LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	return r.getOne(ctx, "google id", `google_id = $1`, googleID)
}

func (r *UserRepository) CreateWithProfile(ctx context.Context, user model.User, profile model.AlumniProfile) (model.User, model.AlumniProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	userQuery := `INSERT INTO users (id, email, name, password_hash, google_id, auth_method, role, email_verified,
			  verification_token, verification_expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(tx.QueryRowContext(ctx, userQuery,
		user.ID, user.Email, user.Name, toNullString(user.PasswordHash), toNullString(user.GoogleID),
		string(user.AuthMethod), string(user.Role), user.EmailVerified,
		nullIfEmpty(user.Verification.Value), nullTime(user.Verification),
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.AlumniProfile{}, model.ErrConflict
		}
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to create user: %w", err)
	}

	profileQuery := `INSERT INTO alumni_profiles (id, user_id, full_name, department, class_year, student_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + profileColumns

	savedProfile, err := scanProfile(tx.QueryRowContext(ctx, profileQuery,
		profile.ID, savedUser.ID, profile.FullName, string(profile.Department), profile.ClassYear,
		toNullString(profile.StudentID), profile.CreatedAt, profile.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.AlumniProfile{}, model.ErrConflict
		}
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, model.AlumniProfile{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedUser, savedProfile, nil
}

// updateOne runs a conditional UPDATE ... RETURNING and maps no rows to ErrNotFound.
func (r *UserRepository) updateOne(ctx context.Context, op, query string, args ...any) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to %s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (model.User, error) {
	query := `UPDATE users SET email_verified = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = $2
			  WHERE verification_token = $1 AND verification_expires_at > $2 AND deleted_at IS NULL
			  RETURNING ` + userColumns
	return r.updateOne(ctx, "consume verification token", query, token, now)
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token string, passwordHash string, now time.Time) (model.User, error) {
	query := `UPDATE users SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL, updated_at = $3
			  WHERE reset_token = $1 AND reset_expires_at > $3 AND deleted_at IS NULL
			  RETURNING ` + userColumns
	return r.updateOne(ctx, "consume reset token", query, token, passwordHash, now)
}

func (r *UserRepository) LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID, name string) (model.User, error) {
	query := `UPDATE users SET google_id = $2, name = COALESCE(NULLIF($3, ''), name), auth_method = 'GOOGLE', updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL AND (google_id IS NULL OR google_id = $2)
			  RETURNING ` + userColumns
	return r.updateOne(ctx, "link google id", query, userID, googleID, name)
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (model.User, error) {
	query := `UPDATE users SET role = $2, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL
			  RETURNING ` + userColumns
	return r.updateOne(ctx, "update role", query, userID, string(role))
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	query := `UPDATE users SET verification_token = $2, verification_expires_at = $3, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`
	return r.exec(ctx, "set verification token", query, userID, nullIfEmpty(token.Value), nullTime(token))
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	query := `UPDATE users SET reset_token = $2, reset_expires_at = $3, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`
	return r.exec(ctx, "set reset token", query, userID, nullIfEmpty(token.Value), nullTime(token))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`
	return r.exec(ctx, "update password", query, userID, passwordHash)
}

func (r *UserRepository) SoftDelete(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `UPDATE users SET deleted_at = $2, updated_at = $2
			  WHERE id = $1 AND deleted_at IS NULL`
	return r.exec(ctx, "soft delete user", query, userID, at)
}

func (r *UserRepository) Restore(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NULL, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NOT NULL`
	return r.exec(ctx, "restore user", query, userID)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t model.SingleUseToken) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.ExpiresAt, Valid: true}
}

func singleUse(token sql.NullString, expires sql.NullTime) model.SingleUseToken {
	if !token.Valid || !expires.Valid {
		return model.SingleUseToken{}
	}
	return model.SingleUseToken{Value: token.String, ExpiresAt: expires.Time}
}
