package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/alumni-server/internal/model"
)

var userColumnNames = []string{
	"id", "email", "name", "password_hash", "google_id", "auth_method", "role", "email_verified",
	"verification_token", "verification_expires_at", "reset_token", "reset_expires_at",
	"created_at", "updated_at", "deleted_at",
}

var profileColumnNames = []string{
	"id", "user_id", "full_name", "department", "class_year", "student_id", "city", "industry",
	"job_level", "income_range", "job_title", "company_name", "linkedin_url", "created_at", "updated_at",
}

func newMock(t *testing.T) (*UserRepository, *ProfileRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(db), NewProfileRepository(db), mock
}

func userRow(id uuid.UUID, now time.Time, verification any, verificationExpires any) *sqlmock.Rows {
	return sqlmock.NewRows(userColumnNames).AddRow(
		id.String(), "ana@example.com", "Ana", "$2a$hash", nil, "EMAIL", "USER", false,
		verification, verificationExpires, nil, nil,
		now, now, nil,
	)
}

func profileRow(id, userID uuid.UUID, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(profileColumnNames).AddRow(
		id.String(), userID.String(), "Ana", "TEP", int64(2020), nil, "Bandung", nil,
		nil, nil, nil, nil, nil, now, now,
	)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()
	now := time.Now().UTC()
	expires := now.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT .* FROM users WHERE LOWER\(email\) = LOWER\(\$1\) AND deleted_at IS NULL`).
		WithArgs("ana@example.com").
		WillReturnRows(userRow(id, now, "tok", expires))

	u, err := users.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, model.AuthMethodEmail, u.AuthMethod)
	assert.Equal(t, model.RoleUser, u.Role)
	require.NotNil(t, u.PasswordHash)
	assert.Nil(t, u.GoogleID)
	assert.Equal(t, model.SingleUseToken{Value: "tok", ExpiresAt: expires}, u.Verification)
	assert.True(t, u.Reset.IsZero())
	assert.Nil(t, u.DeletedAt)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	_, err := users.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_GetByGoogleID_Error(t *testing.T) {
	users, _, mock := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE google_id = \$1`).
		WithArgs("sub").
		WillReturnError(errors.New("connection reset"))

	_, err := users.GetByGoogleID(context.Background(), "sub")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get user by google id")
}

func TestUserRepository_CreateWithProfile(t *testing.T) {
	users, _, mock := newMock(t)
	userID, profileID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnRows(userRow(userID, now, "tok", now.Add(time.Hour)))
	mock.ExpectQuery(`INSERT INTO alumni_profiles`).WillReturnRows(profileRow(profileID, userID, now))
	mock.ExpectCommit()

	u, p, err := users.CreateWithProfile(context.Background(),
		model.User{ID: userID, Email: "ana@example.com", AuthMethod: model.AuthMethodEmail, Role: model.RoleUser},
		model.AlumniProfile{ID: profileID, FullName: "Ana", Department: model.DepartmentTEP, ClassYear: 2020},
	)
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, model.DepartmentTEP, p.Department)
	assert.Equal(t, 2020, p.ClassYear)
	require.NotNil(t, p.City)
	assert.Equal(t, "Bandung", *p.City)
}

func TestUserRepository_CreateWithProfile_RollsBackOnProfileFailure(t *testing.T) {
	users, _, mock := newMock(t)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnRows(userRow(userID, now, nil, nil))
	mock.ExpectQuery(`INSERT INTO alumni_profiles`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, _, err := users.CreateWithProfile(context.Background(),
		model.User{ID: userID, Email: "ana@example.com"},
		model.AlumniProfile{ID: uuid.New(), Department: model.DepartmentTEP, ClassYear: 2020},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create profile")
}

func TestUserRepository_CreateWithProfile_Conflict(t *testing.T) {
	users, _, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, _, err := users.CreateWithProfile(context.Background(), model.User{ID: uuid.New()}, model.AlumniProfile{})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUserRepository_ConsumeVerificationToken(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET email_verified = TRUE, verification_token = NULL.*WHERE verification_token = \$1 AND verification_expires_at > \$2 AND deleted_at IS NULL`).
		WithArgs("tok", now).
		WillReturnRows(userRow(id, now, nil, nil))

	u, err := users.ConsumeVerificationToken(context.Background(), "tok", now)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.Verification.IsZero())
}

func TestUserRepository_ConsumeResetToken_NoMatch(t *testing.T) {
	users, _, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET password_hash = \$2, reset_token = NULL.*WHERE reset_token = \$1 AND reset_expires_at > \$3`).
		WithArgs("stale", "hash", now).
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	_, err := users.ConsumeResetToken(context.Background(), "stale", "hash", now)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_LinkGoogleID_Conflict(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE users SET google_id = \$2`).
		WithArgs(id, "sub", "Ana").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := users.LinkGoogleID(context.Background(), id, "sub", "Ana")
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUserRepository_SetTokens(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()
	expires := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec(`UPDATE users SET verification_token = \$2, verification_expires_at = \$3`).
		WithArgs(id, "tok", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET reset_token = \$2, reset_expires_at = \$3`).
		WithArgs(id, "rst", expires).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, users.SetVerificationToken(context.Background(), id, model.SingleUseToken{Value: "tok", ExpiresAt: expires}))
	err := users.SetResetToken(context.Background(), id, model.SingleUseToken{Value: "rst", ExpiresAt: expires})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_Lifecycle(t *testing.T) {
	users, _, mock := newMock(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE users SET password_hash = \$2, updated_at = NOW\(\)`).
		WithArgs(id, "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET deleted_at = \$2.*WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET deleted_at = NULL.*WHERE id = \$1 AND deleted_at IS NOT NULL`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE users SET role = \$2`).
		WithArgs(id, "ADMIN").
		WillReturnRows(userRow(id, now, nil, nil))

	require.NoError(t, users.UpdatePassword(context.Background(), id, "hash"))
	require.NoError(t, users.SoftDelete(context.Background(), id, now))
	require.NoError(t, users.Restore(context.Background(), id))
	_, err := users.UpdateRole(context.Background(), id, model.RoleAdmin)
	require.NoError(t, err)
}

func TestProfileRepository_GetAndUpdate(t *testing.T) {
	_, profiles, mock := newMock(t)
	userID, profileID := uuid.New(), uuid.New()
	now := time.Now().UTC()
	city := "Bandung"

	mock.ExpectQuery(`SELECT .* FROM alumni_profiles WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(profileRow(profileID, userID, now))
	mock.ExpectQuery(`UPDATE alumni_profiles SET full_name = \$2`).
		WithArgs(userID, "Ana", nil, city, nil, nil, nil, nil, nil, nil).
		WillReturnRows(profileRow(profileID, userID, now))

	p, err := profiles.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, profileID, p.ID)

	p.City = &city
	_, err = profiles.Update(context.Background(), p)
	require.NoError(t, err)
}

func TestProfileRepository_NotFound(t *testing.T) {
	_, profiles, mock := newMock(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM alumni_profiles`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileColumnNames))

	_, err := profiles.GetByUserID(context.Background(), userID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_List(t *testing.T) {
	users, _, mock := newMock(t)
	id, profileID := uuid.New(), uuid.New()
	noProfile := uuid.New()
	now := time.Now().UTC()

	joined := append(append([]string{}, userColumnNames...), profileColumnNames...)
	rows := sqlmock.NewRows(joined).
		AddRow(
			id.String(), "ana@example.com", "Ana", "$2a$hash", nil, "EMAIL", "USER", true,
			nil, nil, nil, nil, now, now, nil,
			profileID.String(), id.String(), "Ana Putri", "TEP", int64(2020), nil, "Bandung", nil,
			nil, nil, nil, nil, nil, now, now,
		).
		AddRow(
			noProfile.String(), "anatoly@example.com", "Anatoly", nil, "g-1", "GOOGLE", "USER", true,
			nil, nil, nil, nil, now, now, nil,
			nil, nil, nil, nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil,
		)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u LEFT JOIN alumni_profiles p ON p.user_id = u.id WHERE u.deleted_at IS NULL AND \(u.name ILIKE \$1 OR u.email ILIKE \$1 OR p.full_name ILIKE \$1\) AND p.department = \$2`).
		WithArgs("%ana%", "TEP").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT u.id, .*p.id, .* ORDER BY u.created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("%ana%", "TEP", 10, 10).
		WillReturnRows(rows)

	page, total, err := users.List(context.Background(), model.UserQuery{
		Page: 2, Limit: 10, Search: "ana", Department: model.DepartmentTEP,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, page, 2)
	assert.Equal(t, id, page[0].User.ID)
	require.NotNil(t, page[0].Profile)
	assert.Equal(t, "Ana Putri", page[0].Profile.FullName)
	assert.Equal(t, 2020, page[0].Profile.ClassYear)
	assert.Equal(t, noProfile, page[1].User.ID)
	assert.Nil(t, page[1].Profile)
}

func TestUserRepository_ListDeleted(t *testing.T) {
	users, _, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM .* WHERE u.deleted_at IS NOT NULL AND p.class_year = \$1`).
		WithArgs(2019).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY u.deleted_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(2019, 5, 0).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, userColumnNames...), profileColumnNames...)))

	page, total, err := users.List(context.Background(), model.UserQuery{Page: 1, Limit: 5, ClassYear: 2019, Deleted: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestUserRepository_List_CountError(t *testing.T) {
	users, _, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("connection reset"))

	_, _, err := users.List(context.Background(), model.UserQuery{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}
