package api

import (
	"context"
	"log"
	"net/http"

	"github.com/zlnvch/noteverse/api/rest"
	"github.com/zlnvch/noteverse/api/ws"
	"github.com/zlnvch/noteverse/cache"
	"github.com/zlnvch/noteverse/mq"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store"
	"github.com/zlnvch/noteverse/worker"
)

type NoteverseAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewNoteverseAPI(
	noteverseStore store.NoteverseStore,
	deleteUserNotesQueue mq.MessageQueue,
	noteverseCache cache.NoteverseCache,
	keys service.SigningKeys,
	shutdownCtx context.Context,
) (*NoteverseAPI, error) {
	wsHub := ws.NewHub(noteverseCache)
	err := wsHub.InitSubscriptions(shutdownCtx)
	if err != nil {
		log.Printf("Failed to start WS Hub subscriptions service: %v", err)
		return &NoteverseAPI{}, err
	}
	go wsHub.Run()

	mqConsumer := worker.NewMQConsumer(deleteUserNotesQueue, noteverseStore, noteverseCache)
	go mqConsumer.Run(shutdownCtx)

	svc := service.NewService(
		noteverseStore,
		noteverseCache,
		deleteUserNotesQueue,
		keys,
	)

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &NoteverseAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (noteverseAPI *NoteverseAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/users/signup", noteverseAPI.restHandler.HandleSignup)
	mux.HandleFunc("/users/login", noteverseAPI.restHandler.HandleLogin)
	mux.HandleFunc("/users/logout", noteverseAPI.restHandler.HandleLogout)
	mux.HandleFunc("/users/logout/all", noteverseAPI.restHandler.HandleLogoutAll)
	mux.HandleFunc("/users", noteverseAPI.restHandler.HandleMe)
	mux.HandleFunc("/users/avatar", noteverseAPI.restHandler.HandleAvatar)
	mux.HandleFunc("/notes", noteverseAPI.restHandler.HandleNotes)
	mux.HandleFunc("/notes/", noteverseAPI.restHandler.HandleNote)

	wsUpgrader := noteverseAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		noteverseAPI.wsHandler.ServeWS(wsUpgrader, w, r, noteverseAPI.shutdownCtx)
	})
}
