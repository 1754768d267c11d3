package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/zlnvch/noteverse/cache"
	"github.com/zlnvch/noteverse/service"
)

// Hub maintains the set of active clients and forwards note events and
// revocations to them.
type Hub struct {
	noteverseCache         cache.NoteverseCache
	OpenCh                 chan *Client
	CloseCh                chan *Client
	UserDeletedCh          chan string
	SessionsRevokedCh      chan service.SessionsRevokedMessage
	userToClients          map[string]map[*Client]struct{}
	userToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(noteverseCache cache.NoteverseCache) *Hub {
	return &Hub{
		noteverseCache:         noteverseCache,
		OpenCh:                 make(chan *Client, 256),
		CloseCh:                make(chan *Client, 256),
		UserDeletedCh:          make(chan string, 64),
		SessionsRevokedCh:      make(chan service.SessionsRevokedMessage, 64),
		userToClients:          make(map[string]map[*Client]struct{}),
		userToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const maxConnectionsPerUser = 3

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.userToClients[client.user.Id]; !ok {
				// First connection for this user: start forwarding their
				// note events from Redis
				ctx, cancel := context.WithCancel(context.Background())
				userId := client.user.Id
				channel := "notes:" + userId

				err := h.noteverseCache.Subscribe(ctx, channel, func(messageBytes []byte) {
					for c := range h.userToClients[userId] {
						c.Send <- messageBytes
					}
				})
				if err != nil {
					log.Printf("Failed to create redis sub for channel %s: %v", channel, err)
					cancel()
					close(client.Send)
					continue
				}

				h.userToClients[userId] = make(map[*Client]struct{})
				h.userToSubscriberCancel[userId] = cancel
			}

			if len(h.userToClients[client.user.Id]) >= maxConnectionsPerUser {
				log.Printf("User %s reached max connections (%d)", client.user.Id, maxConnectionsPerUser)
				close(client.Send)
				continue
			}

			h.userToClients[client.user.Id][client] = struct{}{}

		case client := <-h.CloseCh:
			delete(h.userToClients[client.user.Id], client)
			if len(h.userToClients[client.user.Id]) == 0 {
				if cancel, ok := h.userToSubscriberCancel[client.user.Id]; ok {
					cancel()
					delete(h.userToSubscriberCancel, client.user.Id)
				}
				delete(h.userToClients, client.user.Id)
			}

		case userId := <-h.UserDeletedCh:
			if clients, ok := h.userToClients[userId]; ok {
				for client := range clients {
					close(client.Send)
					delete(h.userToClients[userId], client)
				}
				if cancel, ok := h.userToSubscriberCancel[userId]; ok {
					cancel()
					delete(h.userToSubscriberCancel, userId)
				}
				delete(h.userToClients, userId)
			}

		case revokedMsg := <-h.SessionsRevokedCh:
			clients, ok := h.userToClients[revokedMsg.UserId]
			if !ok {
				continue
			}
			for client := range clients {
				if revokedMsg.All || client.token == revokedMsg.Token {
					close(client.Send)
					delete(h.userToClients[revokedMsg.UserId], client)
				}
			}
			if len(h.userToClients[revokedMsg.UserId]) == 0 {
				if cancel, ok := h.userToSubscriberCancel[revokedMsg.UserId]; ok {
					cancel()
					delete(h.userToSubscriberCancel, revokedMsg.UserId)
				}
				delete(h.userToClients, revokedMsg.UserId)
			}

		}
	}
}

func (h *Hub) InitSubscriptions(shutdownCtx context.Context) error {
	err := h.noteverseCache.Subscribe(shutdownCtx, "user-deleted", func(message []byte) {
		var userDeletedMsg service.UserDeletedMessage
		if err := json.Unmarshal(message, &userDeletedMsg); err == nil {
			h.UserDeletedCh <- userDeletedMsg.UserId
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to user-deleted: %v", err)
		return err
	}

	err = h.noteverseCache.Subscribe(shutdownCtx, "sessions-revoked", func(message []byte) {
		var revokedMsg service.SessionsRevokedMessage
		if err := json.Unmarshal(message, &revokedMsg); err == nil {
			h.SessionsRevokedCh <- revokedMsg
		} else {
			log.Printf("Failed to unmarshal sessions-revoked message: %v", err)
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to sessions-revoked: %v", err)
		return err
	}

	return nil
}
