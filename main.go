package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/zlnvch/noteverse/api"
	"github.com/zlnvch/noteverse/cache/redis"
	"github.com/zlnvch/noteverse/mq/sqsmq"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store/dynamo"
)

const (
	DynamoDBTable           = "Noteverse"
	SQSDeleteUserNotesQueue = "DeleteUserNotesQueue"
)

func main() {
	godotenv.Load()

	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	noteverseStore, err := dynamo.NewDynamoNoteverseStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	deleteUserNotesQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSDeleteUserNotesQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	noteverseCache, err := redis.NewRedisNoteverseCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	keys, err := service.LoadSigningKeys(loadKeyFromEnv("PRIVATE_KEY"), loadKeyFromEnv("PUBLIC_KEY"))
	if err != nil {
		log.Fatalf("Failed to load signing keys: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	noteverseApi, err := api.NewNoteverseAPI(noteverseStore, deleteUserNotesQueue, noteverseCache, keys, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create noteverse api: %v", err)
	}

	mux := http.NewServeMux()
	noteverseApi.RegisterRoutes(mux, os.Getenv("ALLOWED_ORIGIN"))

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}

// loadKeyFromEnv reads a PEM key from the environment. Deployment
// tooling cannot carry newlines in env values, so they arrive as "[n]".
func loadKeyFromEnv(name string) []byte {
	raw := os.Getenv(name)
	return []byte(strings.ReplaceAll(raw, "[n]", "\n"))
}
