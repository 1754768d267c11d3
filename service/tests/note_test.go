package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store"
)

func newNoteId(t *testing.T) string {
	id, err := uuid.NewV7()
	assert.NoError(t, err)
	return id.String()
}

func marshalNotes(t *testing.T, notes []models.Note) [][]byte {
	raw := make([][]byte, 0, len(notes))
	for _, note := range notes {
		b, err := json.Marshal(note)
		assert.NoError(t, err)
		raw = append(raw, b)
	}
	return raw
}

func TestCreateNote_Success(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	created := models.Note{
		Id:      newNoteId(t),
		OwnerId: "user1",
		Title:   "Groceries",
		Content: "milk, eggs",
		Created: 100,
		Updated: 100,
	}

	mockStore.On("CreateNote", ctx, mock.Anything).Return(created, nil)
	mockCache.On("AddNote", ctx, "user1", created.Id, mock.Anything, mock.Anything).Return(nil)
	published := wrapMockWithSignal(
		mockCache.On("Publish", mock.Anything, "notes:user1", mock.Anything).Return(nil),
	)

	note, err := svc.CreateNote(ctx, user, "Groceries", "milk, eggs")
	assert.NoError(t, err)
	assert.Equal(t, created.Id, note.Id)
	assert.Equal(t, "Groceries", note.Title)

	waitForSignal(t, published)
}

func TestCreateNote_InvalidTitle(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	_, err := svc.CreateNote(context.Background(), models.User{Id: "user1"}, "ab", "content")
	assert.Error(t, err)
	var validationErr service.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	mockStore.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
}

func TestListNotes_ServedFromCompleteCache(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	cached := []models.Note{
		{Id: newNoteId(t), Title: "first"},
		{Id: newNoteId(t), Title: "second"},
	}

	mockCache.On("GetNotes", ctx, "user1").Return(marshalNotes(t, cached), nil)
	mockCache.On("IsNotesComplete", ctx, "user1").Return(true, nil)

	notes, err := svc.ListNotes(ctx, user, 10, 0, false)
	assert.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Title)

	mockStore.AssertNotCalled(t, "GetUserNotes", mock.Anything, mock.Anything)
}

func TestListNotes_MergesStoreAndCache(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	// Ids are time-ordered, so allocation order is list order
	idA := newNoteId(t)
	idB := newNoteId(t)
	idC := newNoteId(t)

	dbNotes := []models.Note{
		{Id: idA, OwnerId: "user1", Title: "a"},
		{Id: idB, OwnerId: "user1", Title: "b stale"},
	}
	cachedNotes := []models.Note{
		{Id: idB, Title: "b fresh"},
		{Id: idC, Title: "c"},
	}

	mockCache.On("GetNotes", ctx, "user1").Return(marshalNotes(t, cachedNotes), nil)
	mockCache.On("IsNotesComplete", ctx, "user1").Return(false, nil)
	mockStore.On("GetUserNotes", ctx, "user1").Return(dbNotes, nil)
	mockCache.On("AddNotesBatch", ctx, "user1", mock.Anything).Return(nil)

	notes, err := svc.ListNotes(ctx, user, 10, 0, false)
	assert.NoError(t, err)
	assert.Len(t, notes, 3)
	assert.Equal(t, "a", notes[0].Title)
	assert.Equal(t, "b fresh", notes[1].Title)
	assert.Equal(t, "c", notes[2].Title)

	mockCache.AssertCalled(t, "AddNotesBatch", ctx, "user1", mock.Anything)
}

func TestListNotes_EmptyMarksComplete(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}

	mockCache.On("GetNotes", ctx, "user1").Return([][]byte{}, nil)
	mockCache.On("IsNotesComplete", ctx, "user1").Return(false, nil)
	mockStore.On("GetUserNotes", ctx, "user1").Return([]models.Note{}, nil)
	mockCache.On("SetNotesComplete", ctx, "user1").Return(nil)

	notes, err := svc.ListNotes(ctx, user, 10, 0, false)
	assert.NoError(t, err)
	assert.Empty(t, notes)

	mockCache.AssertCalled(t, "SetNotesComplete", ctx, "user1")
}

func TestListNotes_Pagination(t *testing.T) {
	svc, _, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	cached := []models.Note{
		{Id: newNoteId(t), Title: "first"},
		{Id: newNoteId(t), Title: "second"},
		{Id: newNoteId(t), Title: "third"},
	}

	mockCache.On("GetNotes", ctx, "user1").Return(marshalNotes(t, cached), nil)
	mockCache.On("IsNotesComplete", ctx, "user1").Return(true, nil)

	// Newest first, skip the newest, take one
	notes, err := svc.ListNotes(ctx, user, 1, 1, true)
	assert.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, "second", notes[0].Title)

	// Skip past the end
	notes, err = svc.ListNotes(ctx, user, 10, 5, false)
	assert.NoError(t, err)
	assert.Empty(t, notes)
}

func TestGetNote_NotFound(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetNote", ctx, "user1", "missing").Return(models.Note{}, store.ErrItemNotFound)

	_, err := svc.GetNote(ctx, models.User{Id: "user1"}, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateNote_Success(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	noteId := newNoteId(t)
	current := models.Note{Id: noteId, OwnerId: "user1", Title: "old title", Content: "old"}
	updated := models.Note{Id: noteId, OwnerId: "user1", Title: "new title", Content: "old"}

	mockStore.On("GetNote", ctx, "user1", noteId).Return(current, nil)
	mockStore.On("UpdateNote", ctx, mock.Anything).Return(updated, nil)
	mockCache.On("AddNote", ctx, "user1", noteId, mock.Anything, mock.Anything).Return(nil)
	mockCache.On("Publish", mock.Anything, "notes:user1", mock.Anything).Return(nil).Maybe()

	note, err := svc.UpdateNote(ctx, user, noteId, "new title", "")
	assert.NoError(t, err)
	assert.Equal(t, "new title", note.Title)
	assert.Equal(t, "old", note.Content)
}

func TestUpdateNote_NoFields(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	_, err := svc.UpdateNote(context.Background(), models.User{Id: "user1"}, "note1", "", "")
	assert.ErrorIs(t, err, service.ErrInvalidUpdate)

	mockStore.AssertNotCalled(t, "UpdateNote", mock.Anything, mock.Anything)
}

func TestDeleteNote_Success(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteNote", ctx, "user1", "note1").Return(nil)
	mockCache.On("RemoveNote", ctx, "user1", "note1").Return(nil)
	published := wrapMockWithSignal(
		mockCache.On("Publish", mock.Anything, "notes:user1", mock.Anything).Return(nil),
	)

	err := svc.DeleteNote(ctx, models.User{Id: "user1"}, "note1")
	assert.NoError(t, err)

	waitForSignal(t, published)
}

func TestDeleteNote_NotFound(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteNote", ctx, "user1", "missing").Return(store.ErrItemNotFound)

	err := svc.DeleteNote(ctx, models.User{Id: "user1"}, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	mockCache.AssertNotCalled(t, "RemoveNote", mock.Anything, mock.Anything, mock.Anything)
}
