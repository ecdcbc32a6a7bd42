package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/alumni-server/internal/model"
)

// UserStore is a mock type for the model.UserStore interface.
type UserStore struct {
	mock.Mock
}

var _ model.UserStore = (*UserStore)(nil)

func (_m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	ret := _m.Called(ctx, id)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ret := _m.Called(ctx, email)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	ret := _m.Called(ctx, googleID)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) CreateWithProfile(ctx context.Context, user model.User, profile model.AlumniProfile) (model.User, model.AlumniProfile, error) {
	ret := _m.Called(ctx, user, profile)
	return ret.Get(0).(model.User), ret.Get(1).(model.AlumniProfile), ret.Error(2)
}

func (_m *UserStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (model.User, error) {
	ret := _m.Called(ctx, token, now)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) ConsumeResetToken(ctx context.Context, token string, passwordHash string, now time.Time) (model.User, error) {
	ret := _m.Called(ctx, token, passwordHash, now)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) SetVerificationToken(ctx context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	ret := _m.Called(ctx, userID, token)
	return ret.Error(0)
}

func (_m *UserStore) SetResetToken(ctx context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	ret := _m.Called(ctx, userID, token)
	return ret.Error(0)
}

func (_m *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	ret := _m.Called(ctx, userID, passwordHash)
	return ret.Error(0)
}

func (_m *UserStore) LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID, name string) (model.User, error) {
	ret := _m.Called(ctx, userID, googleID, name)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (model.User, error) {
	ret := _m.Called(ctx, userID, role)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (_m *UserStore) SoftDelete(ctx context.Context, userID uuid.UUID, at time.Time) error {
	ret := _m.Called(ctx, userID, at)
	return ret.Error(0)
}

func (_m *UserStore) Restore(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

func (_m *UserStore) List(ctx context.Context, q model.UserQuery) ([]model.UserWithProfile, int, error) {
	ret := _m.Called(ctx, q)
	return ret.Get(0).([]model.UserWithProfile), ret.Int(1), ret.Error(2)
}
