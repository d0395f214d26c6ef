package services

import (
	"context"
	"sync"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserStore is an in-memory UserStore. Returned users are copies so
// callers mutate nothing until Save, matching real store behavior.
type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*models.User // keyed by username
	saveErr error
	saves   int
}

func newFakeUserStore(usernames ...string) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, name := range usernames {
		s.users[name] = &models.User{
			ID:       uuid.New(),
			Username: name,
			Status:   models.StatusOffline,
			LastSeen: time.Now().UTC(),
		}
	}
	return s
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := *u
	return &dup, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			dup := *u
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uuid.New()
	dup := *user
	s.users[user.Username] = &dup
	return nil
}

func (s *fakeUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	stored, ok := s.users[user.Username]
	if !ok {
		return store.ErrNotFound
	}
	stored.Status = user.Status
	stored.LastSeen = user.LastSeen
	s.saves++
	return nil
}

func (s *fakeUserStore) All(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

func (s *fakeUserStore) status(username string) models.UserStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[username].Status
}

// copyStrings duplicates a slice while preserving nil vs empty, matching the
// real store's round-trip behavior.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// fakeMessageStore is an in-memory MessageStore. Save uses last-write-wins
// replacement, so any lost-update race in the caller would show up as a
// missing receipt entry.
type fakeMessageStore struct {
	mu    sync.Mutex
	msgs  map[string]*models.Message
	order []string
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{msgs: make(map[string]*models.Message)}
}

func (s *fakeMessageStore) FindByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := *m
	dup.ReadBy = copyStrings(m.ReadBy)
	dup.DeliveredTo = copyStrings(m.DeliveredTo)
	return &dup, nil
}

func (s *fakeMessageStore) Insert(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	dup := *msg
	s.msgs[msg.ID.Hex()] = &dup
	s.order = append(s.order, msg.ID.Hex())
	return msg, nil
}

func (s *fakeMessageStore) Save(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.msgs[msg.ID.Hex()]
	if !ok {
		return store.ErrNotFound
	}
	stored.ReadBy = copyStrings(msg.ReadBy)
	stored.DeliveredTo = copyStrings(msg.DeliveredTo)
	return nil
}

func (s *fakeMessageStore) FindByRoomOrderedByCreation(_ context.Context, roomID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []models.Message
	for _, id := range s.order {
		m := s.msgs[id]
		if m.RoomID == roomID {
			dup := *m
			dup.ReadBy = copyStrings(m.ReadBy)
			dup.DeliveredTo = copyStrings(m.DeliveredTo)
			msgs = append(msgs, dup)
		}
	}
	return msgs, nil
}

// seed inserts a message directly and returns its ID.
func (s *fakeMessageStore) seed(roomID, senderID string) string {
	msg := &models.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		Content:     "hello",
		CreatedAt:   time.Now().UTC(),
		ReadBy:      []string{},
		DeliveredTo: []string{},
	}
	saved, _ := s.Insert(context.Background(), msg)
	return saved.ID.Hex()
}

// fakeRoomStore is an in-memory RoomStore.
type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.ChatRoom
}

func newFakeRoomStore(ids ...uuid.UUID) *fakeRoomStore {
	s := &fakeRoomStore{rooms: make(map[string]*models.ChatRoom)}
	for _, id := range ids {
		s.rooms[id.String()] = &models.ChatRoom{
			ID:        id,
			Name:      "room",
			Type:      models.RoomGroup,
			CreatedAt: time.Now().UTC(),
		}
	}
	return s
}

func (s *fakeRoomStore) FindByID(_ context.Context, id string) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := *r
	return &dup, nil
}

func (s *fakeRoomStore) Create(_ context.Context, room *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.ID = uuid.New()
	dup := *room
	s.rooms[room.ID.String()] = &dup
	return nil
}

func (s *fakeRoomStore) ForUser(_ context.Context, _ uuid.UUID) ([]models.ChatRoom, error) {
	return nil, nil
}

func (s *fakeRoomStore) AddMember(_ context.Context, _ string, _ uuid.UUID) error {
	return nil
}

func (s *fakeRoomStore) IsMember(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
	return true, nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	topic string
	event models.Event
}

func (p *recordingPublisher) Publish(topic string, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
}

func (p *recordingPublisher) on(topic string) []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Event
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.event)
		}
	}
	return out
}

func (p *recordingPublisher) countStatus(status models.UserStatus) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, e := range p.events {
		if e.topic != PresenceTopic {
			continue
		}
		if pe, ok := e.event.Payload.(models.PresenceEvent); ok && pe.Status == status {
			count++
		}
	}
	return count
}
