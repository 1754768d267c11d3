package dynamo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/store"
)

const notesQueryLimit = 1000

type DynamoNoteverseStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoNoteverseStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoNoteverseStore, error) {
	client, err := newDynamoDBClient(ctx, devMode, dynamodbEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	if !slices.Contains(tables, tableName) {
		return nil, fmt.Errorf("table %s not found", tableName)
	}

	return &DynamoNoteverseStore{
		client:    client,
		tableName: tableName,
	}, nil
}

func (d *DynamoNoteverseStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to generate user id: %w", err)
	}

	user.Id = id.String()
	now := time.Now().Unix()
	user.Created = now
	user.Updated = now

	// Claim the email first; a duplicate claim means the address is taken.
	marker := dynamoEmail{
		PK:     "EMAIL#" + user.Email,
		SK:     "USER",
		UserId: user.Id,
	}
	if err := createItem(d, ctx, marker); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return models.User{}, store.ErrEmailTaken
		}
		return models.User{}, err
	}

	if err := createItem(d, ctx, userToDynamo(user)); err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (d *DynamoNoteverseStore) GetUserById(ctx context.Context, userId string) (models.User, error) {
	du, err := getItem[dynamoUser](d, ctx, "USER#"+userId, "PROFILE", false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (d *DynamoNoteverseStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	marker, err := getItem[dynamoEmail](d, ctx, "EMAIL#"+email, "USER", false)
	if err != nil {
		return models.User{}, err
	}

	return d.GetUserById(ctx, marker.UserId)
}

func (d *DynamoNoteverseStore) UpdateUserProfile(ctx context.Context, user models.User) (models.User, error) {
	current, err := d.GetUserById(ctx, user.Id)
	if err != nil {
		return models.User{}, err
	}

	user.Updated = time.Now().Unix()

	if user.Email != current.Email {
		// Claim the new email before touching the profile
		marker := dynamoEmail{
			PK:     "EMAIL#" + user.Email,
			SK:     "USER",
			UserId: user.Id,
		}
		if err := createItem(d, ctx, marker); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				return models.User{}, store.ErrEmailTaken
			}
			return models.User{}, err
		}
	}

	updated, err := updateItem(d, ctx, userToDynamo(user), []string{"Name", "Email", "Updated"})
	if err != nil {
		return models.User{}, err
	}

	if user.Email != current.Email {
		// Release the old address; best effort, a leftover marker only
		// blocks reuse of the old email.
		if err := deleteItem(d, ctx, "EMAIL#"+current.Email, "USER"); err != nil {
			return models.User{}, err
		}
	}

	return userFromDynamo(updated), nil
}

func (d *DynamoNoteverseStore) UpdateUserSessions(ctx context.Context, userId string, sessions []models.Session) error {
	du := userToDynamo(models.User{Id: userId, Sessions: sessions, Updated: time.Now().Unix()})

	_, err := updateItem(d, ctx, du, []string{"Sessions", "Updated"})
	return err
}

func (d *DynamoNoteverseStore) UpdateUserCredentials(ctx context.Context, userId string, passwordHash string, sessions []models.Session) error {
	du := userToDynamo(models.User{
		Id:           userId,
		PasswordHash: passwordHash,
		Sessions:     sessions,
		Updated:      time.Now().Unix(),
	})

	_, err := updateItem(d, ctx, du, []string{"PasswordHash", "Sessions", "Updated"})
	return err
}

func (d *DynamoNoteverseStore) DeleteUser(ctx context.Context, userId string, email string) error {
	if err := deleteItemChecked(d, ctx, "USER#"+userId, "PROFILE"); err != nil {
		return err
	}

	if err := deleteItem(d, ctx, "EMAIL#"+email, "USER"); err != nil {
		return err
	}

	return deleteItem(d, ctx, "USER#"+userId, "AVATAR")
}

func (d *DynamoNoteverseStore) SetUserAvatar(ctx context.Context, userId string, avatar []byte) error {
	item := dynamoAvatar{
		PK:     "USER#" + userId,
		SK:     "AVATAR",
		Avatar: avatar,
	}

	return putItem(d, ctx, item)
}

func (d *DynamoNoteverseStore) GetUserAvatar(ctx context.Context, userId string) ([]byte, error) {
	item, err := getItem[dynamoAvatar](d, ctx, "USER#"+userId, "AVATAR", false)
	if err != nil {
		return nil, err
	}

	return item.Avatar, nil
}

func (d *DynamoNoteverseStore) DeleteUserAvatar(ctx context.Context, userId string) error {
	return deleteItemChecked(d, ctx, "USER#"+userId, "AVATAR")
}

func (d *DynamoNoteverseStore) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	// V7 ids sort by creation time, so SK order is creation order
	id, err := uuid.NewV7()
	if err != nil {
		return models.Note{}, fmt.Errorf("failed to generate note id: %w", err)
	}

	note.Id = id.String()
	now := time.Now().Unix()
	note.Created = now
	note.Updated = now

	if err := createItem(d, ctx, noteToDynamo(note)); err != nil {
		return models.Note{}, err
	}

	return note, nil
}

func (d *DynamoNoteverseStore) GetNote(ctx context.Context, ownerId string, noteId string) (models.Note, error) {
	dn, err := getItem[dynamoNote](d, ctx, "NOTE#"+ownerId, noteId, false)
	if err != nil {
		return models.Note{}, err
	}

	return noteFromDynamo(dn), nil
}

func (d *DynamoNoteverseStore) GetUserNotes(ctx context.Context, ownerId string) ([]models.Note, error) {
	// Newest first so the limit keeps the most recent notes
	dynamoNotes, err := queryAllByPK[dynamoNote](d, ctx, "NOTE#"+ownerId, false, notesQueryLimit)
	if err != nil {
		return nil, err
	}

	notes := make([]models.Note, 0, len(dynamoNotes))
	for i := len(dynamoNotes) - 1; i >= 0; i-- {
		notes = append(notes, noteFromDynamo(dynamoNotes[i]))
	}

	return notes, nil
}

func (d *DynamoNoteverseStore) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	note.Updated = time.Now().Unix()

	updated, err := updateItem(d, ctx, noteToDynamo(note), []string{"Title", "Content", "Updated"})
	if err != nil {
		return models.Note{}, err
	}

	return noteFromDynamo(updated), nil
}

func (d *DynamoNoteverseStore) DeleteNote(ctx context.Context, ownerId string, noteId string) error {
	return deleteItemChecked(d, ctx, "NOTE#"+ownerId, noteId)
}

func (d *DynamoNoteverseStore) DeleteUserNotes(ctx context.Context, ownerId string) error {
	return batchDeleteByPKThrottled(d, ctx, "NOTE#"+ownerId, 50*time.Millisecond)
}
