package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the presence status persisted with each user.
// ONLINE/OFFLINE are driven by connection boundary crossings; AWAY and BUSY
// are user-initiated overrides independent of connection count.
type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusOffline UserStatus = "OFFLINE"
	StatusAway    UserStatus = "AWAY"
	StatusBusy    UserStatus = "BUSY"
)

// Valid reports whether s is one of the known presence statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	DisplayName  string     `json:"display_name,omitempty"`
	PasswordHash string     `json:"-"` // Never returned in JSON
	Status       UserStatus `json:"status"`
	LastSeen     time.Time  `json:"last_seen"`
	CreatedAt    time.Time  `json:"created_at"`
}
