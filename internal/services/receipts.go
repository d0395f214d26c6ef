package services

import (
	"context"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

// ReceiptService owns the read/delivered acknowledgment sets for messages.
// Both sets are grow-only, so merges are commutative and idempotent; the
// keyed mutex serializes the fetch-mutate-persist cycle per message so two
// concurrent receipt updates cannot lose each other's entry.
type ReceiptService struct {
	messages store.MessageStore
	broker   Publisher
	keys     *keyedMutex
}

func NewReceiptService(messages store.MessageStore, broker Publisher) *ReceiptService {
	return &ReceiptService{
		messages: messages,
		broker:   broker,
		keys:     newKeyedMutex(),
	}
}

// MarkDelivered adds userID to the message's delivered set. Delivery
// acknowledgments are not broadcast; only read receipts reach the room.
func (s *ReceiptService) MarkDelivered(ctx context.Context, messageID, userID string) error {
	s.keys.lock(messageID)
	defer s.keys.unlock(messageID)

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.DeliveredToUser(userID) {
		return nil
	}
	msg.DeliveredTo = append(msg.DeliveredTo, userID)
	return s.messages.Save(ctx, msg)
}

// MarkRead adds userID to the message's read set and broadcasts a READ
// receipt on the room's read topic. chatRoomID is routing metadata for the
// fan-out only; it is not validated against the message's stored room.
// Re-reading an already-read message is a no-op and emits nothing.
func (s *ReceiptService) MarkRead(ctx context.Context, messageID, chatRoomID, userID string) error {
	s.keys.lock(messageID)
	defer s.keys.unlock(messageID)

	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.ReadByUser(userID) {
		return nil
	}
	msg.ReadBy = append(msg.ReadBy, userID)
	if err := s.messages.Save(ctx, msg); err != nil {
		return err
	}

	s.broker.Publish(RoomReadTopic(chatRoomID), models.Event{
		Type: models.EventReceipt,
		Payload: models.ReceiptEvent{
			MessageID:  messageID,
			ChatRoomID: chatRoomID,
			UserID:     userID,
			Kind:       models.ReceiptRead,
		},
	})
	return nil
}

// UnreadFor returns the room's messages, in creation order, that userID has
// not read and did not send. Always derived from persisted truth, never from
// fan-out state.
func (s *ReceiptService) UnreadFor(ctx context.Context, roomID, userID string) ([]models.Message, error) {
	msgs, err := s.messages.FindByRoomOrderedByCreation(ctx, roomID)
	if err != nil {
		return nil, err
	}

	unread := []models.Message{}
	for _, m := range msgs {
		if m.SenderID != userID && !m.ReadByUser(userID) {
			unread = append(unread, m)
		}
	}
	return unread, nil
}

// UnreadCount counts the same filter as UnreadFor, computed independently.
func (s *ReceiptService) UnreadCount(ctx context.Context, roomID, userID string) (int, error) {
	msgs, err := s.messages.FindByRoomOrderedByCreation(ctx, roomID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range msgs {
		if m.SenderID != userID && !m.ReadByUser(userID) {
			count++
		}
	}
	return count, nil
}
