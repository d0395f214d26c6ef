package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisTopicPrefix = "chat:topic:"

// wireEvent is the envelope published on Redis so every instance can fan the
// event out to its local hub subscribers.
type wireEvent struct {
	Topic string       `json:"topic"`
	Event models.Event `json:"event"`
}

// RedisBridge extends the local Hub across instances via Redis pub/sub.
// Publish goes to Redis only; the subscriber loop feeds the local hub, so the
// publishing instance receives its own events through the same path as every
// other instance.
type RedisBridge struct {
	hub     *Hub
	client  *redis.Client
	started sync.Once
}

func NewRedisBridge(hub *Hub, client *redis.Client) *RedisBridge {
	return &RedisBridge{hub: hub, client: client}
}

// Publish sends the event to Redis for cluster-wide fan-out. When Redis is
// unavailable the event is delivered locally so a single instance keeps
// working.
func (b *RedisBridge) Publish(topic string, event models.Event) {
	data, err := json.Marshal(wireEvent{Topic: topic, Event: event})
	if err != nil {
		log.Printf("bridge: marshal event failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.client.Publish(ctx, redisTopicPrefix+topic, data).Err(); err != nil {
		log.Printf("bridge: redis publish failed, delivering locally: %v", err)
		b.hub.Publish(topic, event)
	}
}

// Start launches the shared Redis listener once per instance.
func (b *RedisBridge) Start(ctx context.Context) {
	b.started.Do(func() {
		go b.run(ctx)
	})
}

func (b *RedisBridge) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := b.client.PSubscribe(ctx, redisTopicPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Fan-out Redis subscriber started (pattern: " + redisTopicPrefix + "*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("bridge: redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var we wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
					log.Printf("bridge: failed to unmarshal event: %v", err)
					continue
				}

				b.hub.Publish(we.Topic, we.Event)
			}
		}()
	}
}
