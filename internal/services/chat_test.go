package services

import (
	"context"
	"testing"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
	"github.com/google/uuid"
)

func newChatFixture() (*ChatService, *fakeMessageStore, *recordingPublisher, string) {
	users := newFakeUserStore("alice", "bob")
	roomID := uuid.New()
	rooms := newFakeRoomStore(roomID)
	msgs := newFakeMessageStore()
	pub := &recordingPublisher{}
	return NewChatService(users, rooms, msgs, pub, nil), msgs, pub, roomID.String()
}

func TestSendMessageRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, msgs, _, roomID := newChatFixture()

	saved, err := svc.SendMessage(ctx, roomID, "alice", "hello there")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if saved.ID.IsZero() {
		t.Error("saved message has no generated ID")
	}

	history, err := msgs.FindByRoomOrderedByCreation(ctx, roomID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d messages, want 1", len(history))
	}

	got := history[0]
	if got.Content != "hello there" {
		t.Errorf("content = %q, want %q", got.Content, "hello there")
	}
	if got.SenderUsername != "alice" {
		t.Errorf("sender = %q, want alice", got.SenderUsername)
	}
	if len(got.ReadBy) != 0 || got.ReadBy == nil {
		t.Errorf("ReadBy = %v, want empty non-nil set", got.ReadBy)
	}
	if len(got.DeliveredTo) != 0 || got.DeliveredTo == nil {
		t.Errorf("DeliveredTo = %v, want empty non-nil set", got.DeliveredTo)
	}
}

func TestSendMessagePublishesMessageAndTypingStop(t *testing.T) {
	ctx := context.Background()
	svc, _, pub, roomID := newChatFixture()

	if _, err := svc.SendMessage(ctx, roomID, "alice", "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	roomEvents := pub.on(RoomTopic(roomID))
	if len(roomEvents) != 1 || roomEvents[0].Type != models.EventMessage {
		t.Fatalf("room topic events = %+v, want one message event", roomEvents)
	}

	typingEvents := pub.on(RoomTypingTopic(roomID))
	if len(typingEvents) != 1 {
		t.Fatalf("typing topic events = %d, want 1", len(typingEvents))
	}
	ti, ok := typingEvents[0].Payload.(models.TypingIndicator)
	if !ok {
		t.Fatalf("typing payload type %T", typingEvents[0].Payload)
	}
	if ti.IsTyping || ti.Username != "alice" {
		t.Errorf("typing payload = %+v, want alice typing stopped", ti)
	}
}

func TestSendMessageValidatesSenderAndRoom(t *testing.T) {
	ctx := context.Background()
	svc, msgs, pub, roomID := newChatFixture()

	if _, err := svc.SendMessage(ctx, roomID, "ghost", "hi"); err != store.ErrNotFound {
		t.Errorf("unknown sender = %v, want ErrNotFound", err)
	}
	if _, err := svc.SendMessage(ctx, uuid.NewString(), "alice", "hi"); err != store.ErrNotFound {
		t.Errorf("unknown room = %v, want ErrNotFound", err)
	}
	if _, err := svc.SendMessage(ctx, roomID, "alice", "   "); err != ErrEmptyMessage {
		t.Errorf("blank content = %v, want ErrEmptyMessage", err)
	}

	if history, _ := msgs.FindByRoomOrderedByCreation(ctx, roomID); len(history) != 0 {
		t.Errorf("failed sends must not persist, got %d messages", len(history))
	}
	if len(pub.events) != 0 {
		t.Errorf("failed sends must not publish, got %d events", len(pub.events))
	}
}

func TestSendTypingIndicatorIsPureFanOut(t *testing.T) {
	svc, msgs, pub, roomID := newChatFixture()

	svc.SendTypingIndicator(roomID, "bob", true)

	events := pub.on(RoomTypingTopic(roomID))
	if len(events) != 1 {
		t.Fatalf("typing events = %d, want 1", len(events))
	}
	ti := events[0].Payload.(models.TypingIndicator)
	if !ti.IsTyping || ti.Username != "bob" {
		t.Errorf("typing payload = %+v, want bob typing", ti)
	}

	if history, _ := msgs.FindByRoomOrderedByCreation(context.Background(), roomID); len(history) != 0 {
		t.Errorf("typing indicators must not persist anything")
	}
}

func TestSendMessageThenReadFlow(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore("sender", "a", "b")
	roomID := uuid.New()
	rooms := newFakeRoomStore(roomID)
	msgs := newFakeMessageStore()
	pub := &recordingPublisher{}
	chat := NewChatService(users, rooms, msgs, pub, nil)
	receipts := NewReceiptService(msgs, pub)

	saved, err := chat.SendMessage(ctx, roomID.String(), "sender", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	room := saved.RoomID

	sender, _ := users.FindByUsername(ctx, "sender")
	userA, _ := users.FindByUsername(ctx, "a")
	userB, _ := users.FindByUsername(ctx, "b")

	if err := receipts.MarkRead(ctx, saved.ID.Hex(), room, userA.ID.String()); err != nil {
		t.Fatalf("a MarkRead: %v", err)
	}
	if err := receipts.MarkRead(ctx, saved.ID.Hex(), room, userB.ID.String()); err != nil {
		t.Fatalf("b MarkRead: %v", err)
	}

	// Sender never sees their own message as unread; A read it; B read it.
	for _, tc := range []struct {
		name   string
		userID string
		want   int
	}{
		{"sender", sender.ID.String(), 0},
		{"a", userA.ID.String(), 0},
		{"b", userB.ID.String(), 0},
	} {
		count, err := receipts.UnreadCount(ctx, room, tc.userID)
		if err != nil {
			t.Fatalf("UnreadCount(%s): %v", tc.name, err)
		}
		if count != tc.want {
			t.Errorf("UnreadCount(%s) = %d, want %d", tc.name, count, tc.want)
		}
	}

	msg, _ := msgs.FindByID(ctx, saved.ID.Hex())
	if len(msg.ReadBy) != 2 {
		t.Errorf("ReadBy = %v, want both readers", msg.ReadBy)
	}
}
