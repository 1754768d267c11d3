package cache

import "context"

type NoteCacheItem struct {
	NoteId string
	Score  int64
	Data   []byte
}

type NoteverseCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	AddNote(ctx context.Context, userId string, noteId string, score int64, noteData []byte) error
	AddNotesBatch(ctx context.Context, userId string, notes []NoteCacheItem) error
	RemoveNote(ctx context.Context, userId string, noteId string) error
	GetNotes(ctx context.Context, userId string) ([][]byte, error)

	SetNotesComplete(ctx context.Context, userId string) error
	IsNotesComplete(ctx context.Context, userId string) (bool, error)
	InvalidateUser(ctx context.Context, userId string) error
}
