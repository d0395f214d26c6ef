package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	recentCacheKeyPrefix = "chat:room:"
	recentCacheKeySuffix = ":recent"
	recentCacheMaxLen    = 50
	recentCacheTTL       = 1 * time.Hour
)

// RecentCache keeps the newest messages of each room in a Redis list so
// initial history loads skip Mongo. Cache state never feeds unread
// computations; those always re-derive from the message store.
type RecentCache struct {
	client *redis.Client
}

func NewRecentCache(client *redis.Client) *RecentCache {
	return &RecentCache{client: client}
}

func recentKey(roomID string) string {
	return recentCacheKeyPrefix + roomID + recentCacheKeySuffix
}

// Push adds a message to the room's recent list (newest at head). Call after
// the message has been persisted. LPUSH + LTRIM keeps the last 50.
func (c *RecentCache) Push(msg models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	key := recentKey(msg.RoomID)
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, recentCacheMaxLen-1)
	pipe.Expire(ctx, key, recentCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("recent cache: push failed for room %s: %v", msg.RoomID, err)
	}
}

// Recent returns the cached messages oldest-first. Returns (nil, false) on a
// miss or Redis error.
func (c *RecentCache) Recent(ctx context.Context, roomID string) ([]models.Message, bool) {
	raw, err := c.client.LRange(ctx, recentKey(roomID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.Message
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.Message
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// Warm replaces the room's cached list with the newest messages from a Mongo
// fetch (oldest at tail).
func (c *RecentCache) Warm(ctx context.Context, roomID string, msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}

	key := recentKey(roomID)
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, recentCacheMaxLen-1)
	pipe.Expire(ctx, key, recentCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("recent cache: warm failed for room %s: %v", roomID, err)
	}
}
