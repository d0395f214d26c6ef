package services

import (
	"log"
	"sync"

	"github.com/chatapp/chatapp-backend/internal/models"
)

// Topic keys for broadcast fan-out. A room has a message topic, a typing
// sub-topic and a read-receipt sub-topic; presence is a single global topic.
const PresenceTopic = "presence"

func RoomTopic(roomID string) string       { return "room/" + roomID }
func RoomTypingTopic(roomID string) string { return "room/" + roomID + "/typing" }
func RoomReadTopic(roomID string) string   { return "room/" + roomID + "/read" }

// Publisher is the fan-out surface the core services depend on. Delivery is
// best-effort and at-least-once per currently-registered subscriber; there is
// no replay for late subscribers.
type Publisher interface {
	Publish(topic string, event models.Event)
}

const subscriberBuffer = 32

// Hub is the in-process topic registry. Subscribers receive events for their
// topics in publish order; a subscriber that cannot keep up has events
// dropped rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
}

type subscription struct {
	ch     chan models.Event
	topics []string
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers a listener for one or more topics. Events for all the
// topics arrive on the single returned channel. The returned func removes the
// registration and closes the channel; call it exactly once.
func (h *Hub) Subscribe(topics ...string) (<-chan models.Event, func()) {
	sub := &subscription{
		ch:     make(chan models.Event, subscriberBuffer),
		topics: topics,
	}

	h.mu.Lock()
	for _, t := range topics {
		if h.topics[t] == nil {
			h.topics[t] = make(map[*subscription]struct{})
		}
		h.topics[t][sub] = struct{}{}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			for _, t := range sub.topics {
				delete(h.topics[t], sub)
				if len(h.topics[t]) == 0 {
					delete(h.topics, t)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers event to every current subscriber of topic.
func (h *Hub) Publish(topic string, event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.topics[topic] {
		select {
		case sub.ch <- event:
		default:
			// Slow consumer; drop instead of blocking the publisher.
			log.Printf("hub: dropping %s event for slow subscriber on %s", event.Type, topic)
		}
	}
}
