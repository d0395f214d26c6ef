package models

import "time"

// EventType identifies the payload carried by an Event envelope.
type EventType string

const (
	EventMessage    EventType = "message"
	EventMessageAck EventType = "message_ack"
	EventTyping     EventType = "typing"
	EventReceipt    EventType = "receipt"
	EventPresence   EventType = "presence"
	EventError      EventType = "error"
)

// Event is the envelope broadcast to topic subscribers and written to
// WebSocket clients. Payload is one of Message, TypingIndicator,
// ReceiptEvent or PresenceEvent depending on Type.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// PresenceEvent announces a user's presence transition. Transient: broadcast
// only, never persisted.
type PresenceEvent struct {
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
	LastSeen time.Time  `json:"last_seen"`
}

// ReceiptKind distinguishes delivery acknowledgments from read receipts.
type ReceiptKind string

const (
	ReceiptDelivered ReceiptKind = "DELIVERED"
	ReceiptRead      ReceiptKind = "READ"
)

// ReceiptEvent announces a receipt merge on a message. Transient.
type ReceiptEvent struct {
	MessageID  string      `json:"message_id"`
	ChatRoomID string      `json:"chat_room_id"`
	UserID     string      `json:"user_id"`
	Kind       ReceiptKind `json:"kind"`
}

// TypingIndicator signals that a user started or stopped typing in a room.
type TypingIndicator struct {
	ChatRoomID string `json:"chat_room_id"`
	Username   string `json:"username"`
	IsTyping   bool   `json:"is_typing"`
}
