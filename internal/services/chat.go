package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

// ErrEmptyMessage is returned when a message with no content is submitted.
var ErrEmptyMessage = errors.New("message content is empty")

// ChatService orchestrates message submission: validates sender and room,
// persists, and fans out the message plus the sender's implicit
// typing-stopped signal.
type ChatService struct {
	users    store.UserStore
	rooms    store.RoomStore
	messages store.MessageStore
	broker   Publisher
	cache    *RecentCache // optional, may be nil
}

func NewChatService(users store.UserStore, rooms store.RoomStore, messages store.MessageStore, broker Publisher, cache *RecentCache) *ChatService {
	return &ChatService{
		users:    users,
		rooms:    rooms,
		messages: messages,
		broker:   broker,
		cache:    cache,
	}
}

// SendMessage persists a new message with empty receipt sets, publishes it on
// the room topic and clears the sender's typing indicator. Returns the
// persisted message including its generated ID.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderUsername, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	sender, err := s.users.FindByUsername(ctx, senderUsername)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:         room.ID.String(),
		SenderID:       sender.ID.String(),
		SenderUsername: sender.Username,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
		ReadBy:         []string{},
		DeliveredTo:    []string{},
	}

	saved, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Push(*saved)
	}

	s.broker.Publish(RoomTopic(roomID), models.Event{
		Type:    models.EventMessage,
		Payload: saved,
	})

	// Sending a message implicitly stops the sender's typing indicator.
	s.broker.Publish(RoomTypingTopic(roomID), models.Event{
		Type: models.EventTyping,
		Payload: models.TypingIndicator{
			ChatRoomID: roomID,
			Username:   sender.Username,
			IsTyping:   false,
		},
	})

	return saved, nil
}

// SendTypingIndicator is pure fan-out: no persistence, no validation beyond
// topic routing.
func (s *ChatService) SendTypingIndicator(roomID, username string, isTyping bool) {
	s.broker.Publish(RoomTypingTopic(roomID), models.Event{
		Type: models.EventTyping,
		Payload: models.TypingIndicator{
			ChatRoomID: roomID,
			Username:   username,
			IsTyping:   isTyping,
		},
	})
}

// History returns the room's messages in creation order from persisted truth
// and warms the recent-message cache for the next initial load.
func (s *ChatService) History(ctx context.Context, roomID string) ([]models.Message, error) {
	msgs, err := s.messages.FindByRoomOrderedByCreation(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(msgs) > 0 {
		s.cache.Warm(ctx, roomID, msgs)
	}
	return msgs, nil
}

// RecentHistory serves an initial load from the Redis cache when possible,
// falling back to full history on a miss.
func (s *ChatService) RecentHistory(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if s.cache != nil && limit > 0 && limit <= recentCacheMaxLen {
		if cached, ok := s.cache.Recent(ctx, roomID); ok {
			if len(cached) > limit {
				cached = cached[len(cached)-limit:]
			}
			return cached, nil
		}
	}

	msgs, err := s.History(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}
