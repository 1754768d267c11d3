package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/store"
	"github.com/zlnvch/noteverse/worker"
)

type UserDeletedMessage struct {
	UserId string `json:"userId"`
}

// UpdateUser changes name and/or email. At least one must be given.
func (s *Service) UpdateUser(ctx context.Context, user models.User, name string, email string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(name) == 0 && len(email) == 0 {
		return models.User{}, ErrInvalidUpdate
	}

	if len(name) > 0 {
		if err := ValidateName(name); err != nil {
			return models.User{}, ErrInvalidUpdate
		}
		user.Name = name
	}
	if len(email) > 0 {
		if err := ValidateEmail(email); err != nil {
			return models.User{}, ErrInvalidUpdate
		}
		user.Email = email
	}

	updated, err := s.Store.UpdateUserProfile(ctx, user)
	if err != nil {
		return models.User{}, err
	}

	return updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, user models.User) error {
	if err := s.Store.DeleteUser(ctx, user.Id, user.Email); err != nil {
		return err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		userDeletedMsg := UserDeletedMessage{UserId: user.Id}
		if userDeletedMsgBytes, err := json.Marshal(userDeletedMsg); err == nil {
			s.Cache.Publish(context.Background(), "user-deleted", userDeletedMsgBytes)
		}

		msg := worker.DeleteUserNotesMessage{UserId: user.Id}
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.MQ.Send(context.Background(), string(msgBytes))
		}
	}()

	return nil
}

const maxAvatarBytes = 1 << 20

// SetAvatar stores the raw image after sniffing its type. Only PNG and
// JPEG make it through.
func (s *Service) SetAvatar(ctx context.Context, user models.User, avatar []byte) error {
	if len(avatar) == 0 || len(avatar) > maxAvatarBytes {
		return ErrInvalidUpdate
	}

	contentType := http.DetectContentType(avatar)
	if contentType != "image/png" && contentType != "image/jpeg" {
		return ErrInvalidUpdate
	}

	return s.Store.SetUserAvatar(ctx, user.Id, avatar)
}

func (s *Service) GetAvatar(ctx context.Context, user models.User) ([]byte, error) {
	avatar, err := s.Store.GetUserAvatar(ctx, user.Id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return avatar, nil
}

func (s *Service) DeleteAvatar(ctx context.Context, user models.User) error {
	if err := s.Store.DeleteUserAvatar(ctx, user.Id); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}
