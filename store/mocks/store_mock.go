package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/noteverse/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUserById(ctx context.Context, userId string) (models.User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) UpdateUserProfile(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) UpdateUserSessions(ctx context.Context, userId string, sessions []models.Session) error {
	args := m.Called(ctx, userId, sessions)
	return args.Error(0)
}

func (m *MockStore) UpdateUserCredentials(ctx context.Context, userId string, passwordHash string, sessions []models.Session) error {
	args := m.Called(ctx, userId, passwordHash, sessions)
	return args.Error(0)
}

func (m *MockStore) DeleteUser(ctx context.Context, userId string, email string) error {
	args := m.Called(ctx, userId, email)
	return args.Error(0)
}

func (m *MockStore) SetUserAvatar(ctx context.Context, userId string, avatar []byte) error {
	args := m.Called(ctx, userId, avatar)
	return args.Error(0)
}

func (m *MockStore) GetUserAvatar(ctx context.Context, userId string) ([]byte, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStore) DeleteUserAvatar(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockStore) GetNote(ctx context.Context, ownerId string, noteId string) (models.Note, error) {
	args := m.Called(ctx, ownerId, noteId)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockStore) GetUserNotes(ctx context.Context, ownerId string) ([]models.Note, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockStore) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockStore) DeleteNote(ctx context.Context, ownerId string, noteId string) error {
	args := m.Called(ctx, ownerId, noteId)
	return args.Error(0)
}

func (m *MockStore) DeleteUserNotes(ctx context.Context, ownerId string) error {
	args := m.Called(ctx, ownerId)
	return args.Error(0)
}
