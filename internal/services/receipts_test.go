package services

import (
	"context"
	"sync"
	"testing"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

func newReceiptFixture() (*ReceiptService, *fakeMessageStore, *recordingPublisher) {
	msgs := newFakeMessageStore()
	pub := &recordingPublisher{}
	return NewReceiptService(msgs, pub), msgs, pub
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, msgs, pub := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	if err := svc.MarkRead(ctx, id, "room-1", "alice"); err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	if err := svc.MarkRead(ctx, id, "room-1", "alice"); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}

	msg, err := msgs.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(msg.ReadBy) != 1 || msg.ReadBy[0] != "alice" {
		t.Errorf("ReadBy = %v, want [alice]", msg.ReadBy)
	}

	// The repeat was a no-op, so only one receipt reached the room.
	if got := len(pub.on(RoomReadTopic("room-1"))); got != 1 {
		t.Errorf("read receipts published = %d, want 1", got)
	}
}

func TestMarkReadPublishesReceiptEvent(t *testing.T) {
	ctx := context.Background()
	svc, msgs, pub := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	if err := svc.MarkRead(ctx, id, "room-1", "alice"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	events := pub.on(RoomReadTopic("room-1"))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	re, ok := events[0].Payload.(models.ReceiptEvent)
	if !ok {
		t.Fatalf("payload type %T, want ReceiptEvent", events[0].Payload)
	}
	if re.MessageID != id || re.UserID != "alice" || re.Kind != models.ReceiptRead {
		t.Errorf("unexpected receipt event: %+v", re)
	}
}

func TestMarkDeliveredDoesNotBroadcast(t *testing.T) {
	ctx := context.Background()
	svc, msgs, pub := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	if err := svc.MarkDelivered(ctx, id, "alice"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if err := svc.MarkDelivered(ctx, id, "alice"); err != nil {
		t.Fatalf("repeat MarkDelivered: %v", err)
	}

	msg, _ := msgs.FindByID(ctx, id)
	if len(msg.DeliveredTo) != 1 || msg.DeliveredTo[0] != "alice" {
		t.Errorf("DeliveredTo = %v, want [alice]", msg.DeliveredTo)
	}
	if len(pub.events) != 0 {
		t.Errorf("delivery acknowledgments must not be broadcast, got %d events", len(pub.events))
	}
}

func TestMarkReadUnknownMessage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newReceiptFixture()

	if err := svc.MarkRead(ctx, "000000000000000000000000", "room-1", "alice"); err != store.ErrNotFound {
		t.Errorf("MarkRead unknown = %v, want ErrNotFound", err)
	}
	if err := svc.MarkDelivered(ctx, "000000000000000000000000", "alice"); err != store.ErrNotFound {
		t.Errorf("MarkDelivered unknown = %v, want ErrNotFound", err)
	}
}

func TestConcurrentMarkReadConverges(t *testing.T) {
	ctx := context.Background()
	svc, msgs, _ := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	readers := []string{"alice", "bob", "carol", "dave"}
	const repeats = 10

	var wg sync.WaitGroup
	for _, reader := range readers {
		for i := 0; i < repeats; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				if err := svc.MarkRead(ctx, id, "room-1", user); err != nil {
					t.Errorf("MarkRead(%s): %v", user, err)
				}
			}(reader)
		}
	}
	wg.Wait()

	msg, err := msgs.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(msg.ReadBy) != len(readers) {
		t.Fatalf("ReadBy = %v, want all of %v exactly once", msg.ReadBy, readers)
	}
	for _, reader := range readers {
		if !msg.ReadByUser(reader) {
			t.Errorf("ReadBy missing %s: %v", reader, msg.ReadBy)
		}
	}
}

func TestUnreadFilterAndCountAgree(t *testing.T) {
	ctx := context.Background()
	svc, msgs, _ := newReceiptFixture()

	m1 := msgs.seed("room-1", "sender")
	msgs.seed("room-1", "sender")
	msgs.seed("room-1", "alice") // alice's own message is never unread for her
	msgs.seed("room-2", "sender")

	if err := svc.MarkRead(ctx, m1, "room-1", "alice"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	for _, user := range []string{"alice", "bob", "sender"} {
		unread, err := svc.UnreadFor(ctx, "room-1", user)
		if err != nil {
			t.Fatalf("UnreadFor(%s): %v", user, err)
		}
		count, err := svc.UnreadCount(ctx, "room-1", user)
		if err != nil {
			t.Fatalf("UnreadCount(%s): %v", user, err)
		}
		if count != len(unread) {
			t.Errorf("user %s: UnreadCount = %d, len(UnreadFor) = %d", user, count, len(unread))
		}
	}

	unread, _ := svc.UnreadFor(ctx, "room-1", "alice")
	if len(unread) != 1 {
		t.Errorf("alice unread = %d messages, want 1 (one read, one own)", len(unread))
	}

	unread, _ = svc.UnreadFor(ctx, "room-1", "sender")
	if len(unread) != 1 {
		t.Errorf("sender unread = %d messages, want 1 (own messages excluded)", len(unread))
	}
}

func TestUnreadPreservesCreationOrder(t *testing.T) {
	ctx := context.Background()
	svc, msgs, _ := newReceiptFixture()

	ids := []string{
		msgs.seed("room-1", "sender"),
		msgs.seed("room-1", "sender"),
		msgs.seed("room-1", "sender"),
	}

	unread, err := svc.UnreadFor(ctx, "room-1", "alice")
	if err != nil {
		t.Fatalf("UnreadFor: %v", err)
	}
	if len(unread) != len(ids) {
		t.Fatalf("unread = %d, want %d", len(unread), len(ids))
	}
	for i, m := range unread {
		if m.ID.Hex() != ids[i] {
			t.Errorf("unread[%d] = %s, want %s (creation order)", i, m.ID.Hex(), ids[i])
		}
	}
}

func TestSenderMayReadOwnMessage(t *testing.T) {
	ctx := context.Background()
	svc, msgs, _ := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	// No special case: sender self-reads are ordinary set additions.
	if err := svc.MarkRead(ctx, id, "room-1", "sender"); err != nil {
		t.Fatalf("sender MarkRead: %v", err)
	}

	msg, _ := msgs.FindByID(ctx, id)
	if !msg.ReadByUser("sender") {
		t.Errorf("ReadBy = %v, want to contain sender", msg.ReadBy)
	}
}

func TestMarkReadRoomIDIsRoutingOnly(t *testing.T) {
	ctx := context.Background()
	svc, msgs, pub := newReceiptFixture()
	id := msgs.seed("room-1", "sender")

	// A mismatched room is honored: it routes the receipt, nothing more.
	if err := svc.MarkRead(ctx, id, "room-other", "alice"); err != nil {
		t.Fatalf("MarkRead with mismatched room: %v", err)
	}

	if got := len(pub.on(RoomReadTopic("room-other"))); got != 1 {
		t.Errorf("receipt on stated room topic = %d, want 1", got)
	}
	msg, _ := msgs.FindByID(ctx, id)
	if !msg.ReadByUser("alice") {
		t.Errorf("ReadBy = %v, want to contain alice", msg.ReadBy)
	}
}
