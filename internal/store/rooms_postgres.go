package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/google/uuid"
)

// PostgresRoomStore implements RoomStore on chat_rooms and room_members.
type PostgresRoomStore struct {
	db *sql.DB
}

func NewPostgresRoomStore(db *sql.DB) *PostgresRoomStore {
	return &PostgresRoomStore{db: db}
}

func (s *PostgresRoomStore) FindByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	roomID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var room models.ChatRoom
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, type, created_by, created_at FROM chat_rooms WHERE id = $1
	`, roomID).Scan(&room.ID, &room.Name, &room.Type, &room.CreatedBy, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *PostgresRoomStore) Create(ctx context.Context, room *models.ChatRoom) error {
	if room.Type == "" {
		room.Type = models.RoomGroup
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_rooms (name, type, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, room.Name, room.Type, room.CreatedBy, room.CreatedAt).Scan(&room.ID)
	if err != nil {
		return err
	}

	// Creator is always a member.
	return s.AddMember(ctx, room.ID.String(), room.CreatedBy)
}

func (s *PostgresRoomStore) ForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.type, r.created_by, r.created_at
		FROM chat_rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.ChatRoom
	for rows.Next() {
		var r models.ChatRoom
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *PostgresRoomStore) AddMember(ctx context.Context, roomID string, userID uuid.UUID) error {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, id, userID)
	return err
}

func (s *PostgresRoomStore) IsMember(ctx context.Context, roomID string, userID uuid.UUID) (bool, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)
	`, id, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
