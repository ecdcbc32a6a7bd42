package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/alumni-server/internal/model"
)

// ProfileStore is a mock type for the model.ProfileStore interface.
type ProfileStore struct {
	mock.Mock
}

var _ model.ProfileStore = (*ProfileStore)(nil)

func (_m *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (model.AlumniProfile, error) {
	ret := _m.Called(ctx, userID)
	return ret.Get(0).(model.AlumniProfile), ret.Error(1)
}

func (_m *ProfileStore) Update(ctx context.Context, profile model.AlumniProfile) (model.AlumniProfile, error) {
	ret := _m.Called(ctx, profile)
	return ret.Get(0).(model.AlumniProfile), ret.Error(1)
}
