package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

// PresenceService tracks how many live connections each user has and converts
// connect/disconnect signals into ONLINE/OFFLINE transitions at the 0↔1
// boundary. The session count map is process-local, exclusively owned by this
// service, and never persisted.
//
// All counter mutation plus the boundary check plus the persistence write are
// one atomic unit per username (keyed mutex), so two racing Connected calls
// cannot both observe the 0→1 crossing and double-emit ONLINE.
type PresenceService struct {
	users  store.UserStore
	broker Publisher

	keys     *keyedMutex
	mu       sync.Mutex
	sessions map[string]int
}

func NewPresenceService(users store.UserStore, broker Publisher) *PresenceService {
	return &PresenceService{
		users:    users,
		broker:   broker,
		keys:     newKeyedMutex(),
		sessions: make(map[string]int),
	}
}

// Connected records one more live connection for username. Only the 0→1
// crossing persists ONLINE and emits a presence event; extra tabs or devices
// are silent counter bumps.
func (p *PresenceService) Connected(ctx context.Context, username string) error {
	p.keys.lock(username)
	defer p.keys.unlock(username)

	// Lookup before touching the counter: an unknown user must leave the
	// in-memory state untouched.
	user, err := p.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if count := p.bump(username, 1); count != 1 {
		return nil
	}

	user.Status = models.StatusOnline
	user.LastSeen = time.Now().UTC()
	if err := p.users.Save(ctx, user); err != nil {
		// Keep the counter consistent with persisted state so a retried
		// Connected re-runs the boundary crossing.
		p.bump(username, -1)
		return err
	}

	p.publish(user)
	return nil
}

// Disconnected records one less live connection. Only the 1→0 crossing
// persists OFFLINE and emits a presence event. A decrement with no live
// sessions is a concurrency anomaly: logged, clamped at zero, not propagated.
func (p *PresenceService) Disconnected(ctx context.Context, username string) error {
	p.keys.lock(username)
	defer p.keys.unlock(username)

	user, err := p.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	count, ok := p.drop(username)
	if !ok {
		log.Printf("presence: disconnect for %q with no live sessions, clamped at zero", username)
		return nil
	}
	if count != 0 {
		return nil
	}

	user.Status = models.StatusOffline
	user.LastSeen = time.Now().UTC()
	if err := p.users.Save(ctx, user); err != nil {
		p.bump(username, 1)
		return err
	}

	p.publish(user)
	return nil
}

// SetStatus is a user-initiated override (AWAY, BUSY, explicit ONLINE or
// OFFLINE) independent of the connection count. Persists and emits
// unconditionally.
func (p *PresenceService) SetStatus(ctx context.Context, username string, status models.UserStatus) error {
	p.keys.lock(username)
	defer p.keys.unlock(username)

	user, err := p.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	user.Status = status
	user.LastSeen = time.Now().UTC()
	if err := p.users.Save(ctx, user); err != nil {
		return err
	}

	p.publish(user)
	return nil
}

// GetStatus returns the last persisted status, OFFLINE for unknown users.
func (p *PresenceService) GetStatus(ctx context.Context, username string) (models.UserStatus, error) {
	user, err := p.users.FindByUsername(ctx, username)
	if err == store.ErrNotFound {
		return models.StatusOffline, nil
	}
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

// GetAllStatuses returns a snapshot of every known user's current status.
func (p *PresenceService) GetAllStatuses(ctx context.Context) (map[string]models.UserStatus, error) {
	users, err := p.users.All(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]models.UserStatus, len(users))
	for _, u := range users {
		statuses[u.Username] = u.Status
	}
	return statuses, nil
}

func (p *PresenceService) publish(user *models.User) {
	p.broker.Publish(PresenceTopic, models.Event{
		Type: models.EventPresence,
		Payload: models.PresenceEvent{
			Username: user.Username,
			Status:   user.Status,
			LastSeen: user.LastSeen,
		},
	})
}

// bump adjusts the session count by delta and returns the new count,
// removing the entry when it reaches zero.
func (p *PresenceService) bump(username string, delta int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := p.sessions[username] + delta
	if count <= 0 {
		delete(p.sessions, username)
		return 0
	}
	p.sessions[username] = count
	return count
}

// drop decrements the session count. ok is false on underflow (no entry).
func (p *PresenceService) drop(username string) (count int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, exists := p.sessions[username]
	if !exists {
		return 0, false
	}
	current--
	if current == 0 {
		delete(p.sessions, username)
		return 0, true
	}
	p.sessions[username] = current
	return current, true
}
