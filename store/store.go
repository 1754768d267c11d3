package store

import (
	"context"
	"errors"

	"github.com/zlnvch/noteverse/models"
)

type NoteverseStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserById(ctx context.Context, userId string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUserProfile(ctx context.Context, user models.User) (models.User, error)
	// UpdateUserSessions replaces the user's whole session list. Session
	// mutation is always a full read-then-write of the list; there is no
	// single-entry persistence primitive.
	UpdateUserSessions(ctx context.Context, userId string, sessions []models.Session) error
	// UpdateUserCredentials replaces the password hash and the session
	// list in one write, so a password rotation can never commit without
	// also revoking every session.
	UpdateUserCredentials(ctx context.Context, userId string, passwordHash string, sessions []models.Session) error
	DeleteUser(ctx context.Context, userId string, email string) error

	SetUserAvatar(ctx context.Context, userId string, avatar []byte) error
	GetUserAvatar(ctx context.Context, userId string) ([]byte, error)
	DeleteUserAvatar(ctx context.Context, userId string) error

	CreateNote(ctx context.Context, note models.Note) (models.Note, error)
	GetNote(ctx context.Context, ownerId string, noteId string) (models.Note, error)
	GetUserNotes(ctx context.Context, ownerId string) ([]models.Note, error)
	UpdateNote(ctx context.Context, note models.Note) (models.Note, error)
	DeleteNote(ctx context.Context, ownerId string, noteId string) error
	DeleteUserNotes(ctx context.Context, ownerId string) error
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
	ErrEmailTaken      = errors.New("email already exists")
)
