package store

import (
	"context"
	"errors"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a user, room or message does not exist.
// Callers surface it unchanged; there is no retry or fallback.
var ErrNotFound = errors.New("not found")

// UserStore is the persistence collaborator for user identities and their
// last persisted presence state.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Save writes back the user's mutable presence fields (status, last_seen).
	Save(ctx context.Context, user *models.User) error
	All(ctx context.Context) ([]models.User, error)
}

// RoomStore is the persistence collaborator for chat rooms and membership.
type RoomStore interface {
	FindByID(ctx context.Context, id string) (*models.ChatRoom, error)
	Create(ctx context.Context, room *models.ChatRoom) error
	ForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	AddMember(ctx context.Context, roomID string, userID uuid.UUID) error
	IsMember(ctx context.Context, roomID string, userID uuid.UUID) (bool, error)
}

// MessageStore is the persistence collaborator for messages. Save writes back
// the mutable receipt sets; correctness of the merge is the caller's
// responsibility (per-message serialization in the receipt service).
type MessageStore interface {
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Insert(ctx context.Context, msg *models.Message) (*models.Message, error)
	Save(ctx context.Context, msg *models.Message) error
	FindByRoomOrderedByCreation(ctx context.Context, roomID string) ([]models.Message, error)
}
