package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store"
	"github.com/zlnvch/noteverse/worker"
)

func TestUpdateUser_Success(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Name: "Alice", Email: "alice@example.com"}
	updated := models.User{Id: "user1", Name: "Alicia", Email: "alice@example.com"}

	mockStore.On("UpdateUserProfile", ctx, mock.Anything).Return(updated, nil)

	got, err := svc.UpdateUser(ctx, user, "Alicia", "")
	assert.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)

	// Email unchanged when only the name is given
	profileArg := mockStore.Calls[0].Arguments.Get(1).(models.User)
	assert.Equal(t, "alice@example.com", profileArg.Email)
}

func TestUpdateUser_NoFields(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	_, err := svc.UpdateUser(context.Background(), models.User{Id: "user1"}, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "UpdateUserProfile", mock.Anything, mock.Anything)
}

func TestUpdateUser_EmailTaken(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Email: "alice@example.com"}
	mockStore.On("UpdateUserProfile", ctx, mock.Anything).Return(models.User{}, store.ErrEmailTaken)

	_, err := svc.UpdateUser(ctx, user, "", "taken@example.com")
	assert.ErrorIs(t, err, store.ErrEmailTaken)
}

func TestDeleteUser_PublishesAndQueues(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Email: "alice@example.com"}

	mockStore.On("DeleteUser", ctx, "user1", "alice@example.com").Return(nil)

	published := wrapMockWithSignal(
		mockCache.On("Publish", mock.Anything, "user-deleted", mock.Anything).Return(nil),
	)

	var sentBody string
	sent := make(chan struct{})
	mockMQ.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sentBody = args.Get(1).(string)
		close(sent)
	}).Return(nil)

	err := svc.DeleteUser(ctx, user)
	assert.NoError(t, err)

	waitForSignal(t, published)
	waitForSignal(t, sent)

	var msg worker.DeleteUserNotesMessage
	assert.NoError(t, json.Unmarshal([]byte(sentBody), &msg))
	assert.Equal(t, "user1", msg.UserId)
}

func TestDeleteUser_StoreFailureSkipsSideEffects(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Email: "alice@example.com"}
	mockStore.On("DeleteUser", ctx, "user1", "alice@example.com").Return(assert.AnError)

	err := svc.DeleteUser(ctx, user)
	assert.Error(t, err)

	mockCache.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	mockMQ.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func TestSetAvatar_AcceptsPNG(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("SetUserAvatar", ctx, "user1", mock.Anything).Return(nil)

	err := svc.SetAvatar(ctx, models.User{Id: "user1"}, pngHeader)
	assert.NoError(t, err)
}

func TestSetAvatar_RejectsNonImage(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	err := svc.SetAvatar(context.Background(), models.User{Id: "user1"}, []byte("just some text"))
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "SetUserAvatar", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAvatar_RejectsEmpty(t *testing.T) {
	svc, _, _, _ := setupService(t)

	err := svc.SetAvatar(context.Background(), models.User{Id: "user1"}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)
}

func TestGetAvatar_NotFound(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetUserAvatar", ctx, "user1").Return([]byte(nil), store.ErrItemNotFound)

	_, err := svc.GetAvatar(ctx, models.User{Id: "user1"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}
