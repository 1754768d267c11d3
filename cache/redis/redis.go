package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zlnvch/noteverse/cache"
)

type RedisNoteverseCache struct {
	client redis.UniversalClient
}

func NewRedisNoteverseCache(ctx context.Context, devMode bool, redis_endpoint string) (*RedisNoteverseCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisNoteverseCache{client: client}, nil
}

func (redisCache *RedisNoteverseCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisNoteverseCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Helper functions to generate Redis keys with hash tags for cluster compatibility
func buildNotesKey(userId string) string {
	return "notes:{" + userId + "}"
}

func buildNotesDataKey(userId string) string {
	return "notes:{" + userId + "}:data"
}

func buildNotesCompleteKey(userId string) string {
	return "notes:{" + userId + "}:complete"
}

const cacheTTL = 10 * time.Minute

// Design Choice: Split Index/Data Pattern
// We use two Redis structures to store a user's notes efficiently:
// 1. ZSet ("notes:{userId}"): Stores only NoteIDs, ordered by creation time (Score).
//   - Purpose: Maintains chronological order and allows O(1) removal by ID (ZREM).
//   - Why? If we stored the full JSON blob here, we couldn't efficiently delete a note by its ID
//     without knowing the full JSON content or scanning the set.
//
// 2. Hash ("notes:{userId}:data"): Stores NoteID -> JSON Blob.
//   - Purpose: fast O(1) data retrieval (HMGET) after getting IDs from the ZSet.
func (redisCache *RedisNoteverseCache) AddNote(ctx context.Context, userId string, noteId string, score int64, noteData []byte) error {
	key := buildNotesKey(userId)
	dataKey := buildNotesDataKey(userId)
	completeKey := buildNotesCompleteKey(userId)

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: noteId})
	pipe.HSet(ctx, dataKey, noteId, noteData)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisNoteverseCache) AddNotesBatch(ctx context.Context, userId string, notes []cache.NoteCacheItem) error {
	if len(notes) == 0 {
		return nil
	}

	key := buildNotesKey(userId)
	dataKey := buildNotesDataKey(userId)
	completeKey := buildNotesCompleteKey(userId)

	zMembers := make([]redis.Z, len(notes))
	// HSet accepts a map[string]interface{} or alternating key/values
	// A flat list of key, value, key, value... is usually most efficient for HSet in go-redis
	hValues := make([]interface{}, len(notes)*2)

	for i, n := range notes {
		zMembers[i] = redis.Z{
			Score:  float64(n.Score),
			Member: n.NoteId,
		}
		hValues[i*2] = n.NoteId
		hValues[i*2+1] = n.Data
	}

	pipe := redisCache.client.Pipeline()
	pipe.ZAdd(ctx, key, zMembers...)
	pipe.HSet(ctx, dataKey, hValues...)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisNoteverseCache) RemoveNote(ctx context.Context, userId string, noteId string) error {
	key := buildNotesKey(userId)
	dataKey := buildNotesDataKey(userId)
	completeKey := buildNotesCompleteKey(userId)

	pipe := redisCache.client.Pipeline()
	pipe.ZRem(ctx, key, noteId)
	pipe.HDel(ctx, dataKey, noteId)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (redisCache *RedisNoteverseCache) GetNotes(ctx context.Context, userId string) ([][]byte, error) {
	key := buildNotesKey(userId)
	dataKey := buildNotesDataKey(userId)
	completeKey := buildNotesCompleteKey(userId)

	// 1. Get last 1000 IDs from ZSet ordered by score
	ids, err := redisCache.client.ZRange(ctx, key, -1000, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return [][]byte{}, nil
	}

	// 2. Fetch data from Hash
	// HMGet returns interface{}, need to cast
	dataMap, err := redisCache.client.HMGet(ctx, dataKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	// 3. Assemble result
	notes := make([][]byte, 0, len(ids))
	for _, item := range dataMap {
		if item == nil {
			continue // Should not happen if consistency is maintained
		}
		if s, ok := item.(string); ok {
			notes = append(notes, []byte(s))
		}
	}

	// Refresh TTL
	pipe := redisCache.client.Pipeline()
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, _ = pipe.Exec(ctx)

	return notes, nil
}

func (redisCache *RedisNoteverseCache) SetNotesComplete(ctx context.Context, userId string) error {
	completeKey := buildNotesCompleteKey(userId)
	return redisCache.client.Set(ctx, completeKey, "true", cacheTTL).Err()
}

func (redisCache *RedisNoteverseCache) IsNotesComplete(ctx context.Context, userId string) (bool, error) {
	completeKey := buildNotesCompleteKey(userId)
	val, err := redisCache.client.Exists(ctx, completeKey).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (redisCache *RedisNoteverseCache) InvalidateUser(ctx context.Context, userId string) error {
	key := buildNotesKey(userId)
	dataKey := buildNotesDataKey(userId)
	completeKey := buildNotesCompleteKey(userId)

	// All 3 keys for this user have the same hash tag, so they hash to the same slot
	return redisCache.client.Del(ctx, key, dataKey, completeKey).Err()
}
