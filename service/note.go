package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/noteverse/cache"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/store"
)

type NoteEventMessage struct {
	Type string      `json:"type"`
	Note models.Note `json:"note"`
}

const (
	maxListLimit = 100
)

func (s *Service) CreateNote(ctx context.Context, user models.User, title string, content string) (models.Note, error) {
	if err := ValidateNoteTitle(title); err != nil {
		return models.Note{}, err
	}
	if err := ValidateNoteContent(content); err != nil {
		return models.Note{}, err
	}

	note, err := s.Store.CreateNote(ctx, models.Note{
		OwnerId: user.Id,
		Title:   title,
		Content: content,
	})
	if err != nil {
		return models.Note{}, err
	}

	s.cacheNote(ctx, note)
	s.publishNoteEvent(user.Id, "note_created", note)

	return note, nil
}

func (s *Service) GetNote(ctx context.Context, user models.User, noteId string) (models.Note, error) {
	note, err := s.Store.GetNote(ctx, user.Id, noteId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Note{}, ErrNotFound
		}
		return models.Note{}, err
	}

	return note, nil
}

// ListNotes serves from the cache when it holds the complete set,
// otherwise merges cache and store and reseeds the cache.
func (s *Service) ListNotes(ctx context.Context, user models.User, limit int, skip int, descending bool) ([]models.Note, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	redisNotesRaw, err := s.Cache.GetNotes(ctx, user.Id)
	redisNotes := []models.Note{}
	if err == nil {
		for _, b := range redisNotesRaw {
			var note models.Note
			if err := json.Unmarshal(b, &note); err == nil {
				redisNotes = append(redisNotes, note)
			}
		}
	}

	isComplete, _ := s.Cache.IsNotesComplete(ctx, user.Id)
	if isComplete && err == nil {
		return pageNotes(redisNotes, limit, skip, descending), nil
	}

	// Fallback to DynamoDB + Merge with Redis
	dbNotes, err := s.Store.GetUserNotes(ctx, user.Id)
	if err != nil {
		return nil, err
	}

	finalNotes := mergeNotes(dbNotes, redisNotes)

	batchItems := make([]cache.NoteCacheItem, 0, len(dbNotes))
	for _, note := range dbNotes {
		nBytes, _ := json.Marshal(note)
		t, _ := getTimeFromUUIDv7(note.Id)
		batchItems = append(batchItems, cache.NoteCacheItem{
			NoteId: note.Id,
			Score:  t.UnixMilli(),
			Data:   nBytes,
		})
	}

	if len(batchItems) > 0 {
		s.Cache.AddNotesBatch(ctx, user.Id, batchItems)
	} else {
		// Mark as complete even if currently empty
		s.Cache.SetNotesComplete(ctx, user.Id)
	}

	return pageNotes(finalNotes, limit, skip, descending), nil
}

func (s *Service) UpdateNote(ctx context.Context, user models.User, noteId string, title string, content string) (models.Note, error) {
	if len(title) == 0 && len(content) == 0 {
		return models.Note{}, ErrInvalidUpdate
	}

	current, err := s.GetNote(ctx, user, noteId)
	if err != nil {
		return models.Note{}, err
	}

	if len(title) > 0 {
		if err := ValidateNoteTitle(title); err != nil {
			return models.Note{}, err
		}
		current.Title = title
	}
	if len(content) > 0 {
		if err := ValidateNoteContent(content); err != nil {
			return models.Note{}, err
		}
		current.Content = content
	}

	updated, err := s.Store.UpdateNote(ctx, current)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Note{}, ErrNotFound
		}
		return models.Note{}, err
	}

	s.cacheNote(ctx, updated)
	s.publishNoteEvent(user.Id, "note_updated", updated)

	return updated, nil
}

func (s *Service) DeleteNote(ctx context.Context, user models.User, noteId string) error {
	if err := s.Store.DeleteNote(ctx, user.Id, noteId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Cache.RemoveNote(ctx, user.Id, noteId)
	s.publishNoteEvent(user.Id, "note_deleted", models.Note{Id: noteId, OwnerId: user.Id})

	return nil
}

func (s *Service) cacheNote(ctx context.Context, note models.Note) {
	nBytes, err := json.Marshal(note)
	if err != nil {
		return
	}
	t, _ := getTimeFromUUIDv7(note.Id)
	s.Cache.AddNote(ctx, note.OwnerId, note.Id, t.UnixMilli(), nBytes)
}

// Async side-effect - the write path never waits on the broadcast
func (s *Service) publishNoteEvent(userId string, eventType string, note models.Note) {
	go func() {
		msg := NoteEventMessage{Type: eventType, Note: note}
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.Cache.Publish(context.Background(), "notes:"+userId, msgBytes)
		}
	}()
}

// mergeNotes merges two id-ordered lists, preferring the cache copy on
// collision since it may carry a fresher update.
func mergeNotes(dbNotes []models.Note, redisNotes []models.Note) []models.Note {
	finalNotes := make([]models.Note, 0, len(dbNotes)+len(redisNotes))
	i, j := 0, 0
	for i < len(dbNotes) && j < len(redisNotes) {
		dbId := dbNotes[i].Id
		redisId := redisNotes[j].Id

		if dbId == redisId {
			finalNotes = append(finalNotes, redisNotes[j])
			i++
			j++
		} else if dbId < redisId {
			finalNotes = append(finalNotes, dbNotes[i])
			i++
		} else {
			finalNotes = append(finalNotes, redisNotes[j])
			j++
		}
	}
	if i < len(dbNotes) {
		finalNotes = append(finalNotes, dbNotes[i:]...)
	}
	if j < len(redisNotes) {
		finalNotes = append(finalNotes, redisNotes[j:]...)
	}
	return finalNotes
}

// pageNotes applies ordering, skip and limit. Input is in creation
// order since note ids are time-ordered.
func pageNotes(notes []models.Note, limit int, skip int, descending bool) []models.Note {
	if descending {
		reversed := make([]models.Note, 0, len(notes))
		for i := len(notes) - 1; i >= 0; i-- {
			reversed = append(reversed, notes[i])
		}
		notes = reversed
	}

	if skip >= len(notes) {
		return []models.Note{}
	}
	notes = notes[skip:]

	if len(notes) > limit {
		notes = notes[:limit]
	}

	return notes
}

func getTimeFromUUIDv7(noteId string) (time.Time, error) {
	id, err := uuid.FromString(noteId)
	if err != nil || id.Version() != uuid.V7 {
		return time.Time{}, err
	}
	ts, err := uuid.TimestampFromV7(id)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time()
}
