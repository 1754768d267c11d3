package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/service"
	"golang.org/x/crypto/bcrypt"
)

func TestChangePassword_Success(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{
		Id:           "user1",
		PasswordHash: hashPassword(t, "Old#Pass123"),
		Sessions: []models.Session{
			{Token: "token-a"},
			{Token: "token-b"},
		},
	}

	var savedHash string
	var savedSessions []models.Session
	mockStore.On("UpdateUserCredentials", ctx, "user1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedHash = args.Get(2).(string)
			savedSessions = args.Get(3).([]models.Session)
		}).
		Return(nil)

	published := wrapMockWithSignal(
		mockCache.On("Publish", mock.Anything, "sessions-revoked", mock.Anything).Return(nil),
	)

	err := svc.ChangePassword(ctx, user, "Old#Pass123", "New#Pass456")
	assert.NoError(t, err)

	// New hash verifies against the new password only
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedHash), []byte("New#Pass456")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(savedHash), []byte("Old#Pass123")))

	// Rotation revokes every session
	assert.Empty(t, savedSessions)
	assert.NotNil(t, savedSessions)

	waitForSignal(t, published)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	user := models.User{Id: "user1", PasswordHash: hashPassword(t, "Old#Pass123")}

	err := svc.ChangePassword(context.Background(), user, "Not#The0ld1", "New#Pass456")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "UpdateUserCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_SameNewPassword(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	user := models.User{Id: "user1", PasswordHash: hashPassword(t, "Old#Pass123")}

	err := svc.ChangePassword(context.Background(), user, "Old#Pass123", "Old#Pass123")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "UpdateUserCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	user := models.User{Id: "user1", PasswordHash: hashPassword(t, "Old#Pass123")}

	err := svc.ChangePassword(context.Background(), user, "Old#Pass123", "weakpass")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "UpdateUserCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_EmptyInputs(t *testing.T) {
	svc, _, _, _ := setupService(t)

	user := models.User{Id: "user1", PasswordHash: hashPassword(t, "Old#Pass123")}

	err := svc.ChangePassword(context.Background(), user, "", "New#Pass456")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	err = svc.ChangePassword(context.Background(), user, "Old#Pass123", "")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)
}
