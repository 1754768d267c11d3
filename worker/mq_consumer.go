package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/zlnvch/noteverse/cache"
	"github.com/zlnvch/noteverse/mq"
	"github.com/zlnvch/noteverse/store"
)

type DeleteUserNotesMessage struct {
	UserId string `json:"userId"`
}

type MQConsumer struct {
	deleteUserNotesQueue mq.MessageQueue
	noteverseStore       store.NoteverseStore
	noteverseCache       cache.NoteverseCache
}

func NewMQConsumer(deleteUserNotesQueue mq.MessageQueue, noteverseStore store.NoteverseStore, noteverseCache cache.NoteverseCache) *MQConsumer {
	return &MQConsumer{
		deleteUserNotesQueue: deleteUserNotesQueue,
		noteverseStore:       noteverseStore,
		noteverseCache:       noteverseCache,
	}
}

// Allow up to 5 minutes for the throttled batch deletion of all the user's notes
const visibilityTimeout = 300

func (mqConsumer MQConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := mqConsumer.deleteUserNotesQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("mqConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var deleteMsg DeleteUserNotesMessage
		if err := json.Unmarshal([]byte(msg.Body), &deleteMsg); err != nil {
			continue
		}

		if err := mqConsumer.processDelete(deleteMsg); err != nil {
			log.Printf("noteverseStore delete user notes error: %v", err)
			continue
		}

		err = mqConsumer.deleteUserNotesQueue.Delete(context.Background(), msg)
		if err != nil {
			log.Printf("mqConsumer delete error: %v", err)
			continue
		}
	}
}

func (mqConsumer MQConsumer) processDelete(deleteMsg DeleteUserNotesMessage) error {
	// timeout should be a little less than queue visibility timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
	defer cancel()

	if err := mqConsumer.noteverseStore.DeleteUserNotes(ctx, deleteMsg.UserId); err != nil {
		return err
	}

	// Drop cached notes so nothing stale survives the account
	if err := mqConsumer.noteverseCache.InvalidateUser(ctx, deleteMsg.UserId); err != nil {
		log.Printf("Failed to invalidate user cache: %v", err)
	}

	return nil
}
