package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is stored in MongoDB, one document per message (flat collection for
// pagination). ReadBy and DeliveredTo are grow-only sets of user IDs: entries
// are only ever added, re-adding is a no-op, so concurrent receipt merges are
// commutative and idempotent.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID         string             `bson:"room_id" json:"room_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderUsername string             `bson:"sender_username" json:"sender_username"`
	Content        string             `bson:"content" json:"content"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	ReadBy         []string           `bson:"read_by" json:"read_by"`
	DeliveredTo    []string           `bson:"delivered_to" json:"delivered_to"`
}

// ReadByUser reports whether userID is in the message's read set.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// DeliveredToUser reports whether userID is in the message's delivered set.
func (m *Message) DeliveredToUser(userID string) bool {
	for _, id := range m.DeliveredTo {
		if id == userID {
			return true
		}
	}
	return false
}
