package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/services"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced at the HTTP CORS layer.
		return true
	},
}

// ChatClientMessage represents frames coming from the client over WebSocket.
type ChatClientMessage struct {
	Type      string `json:"type"` // "message", "typing_start", "typing_stop", "read", "delivered", "ping"
	RoomID    string `json:"room_id,omitempty"`
	Content   string `json:"content,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// wsConn serializes writes: the hub forwarder and the read loop both write
// to the same connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// ChatWebSocket handles real-time chat for a single room over WebSocket.
// Authentication is the session token (Authorization: Bearer <token> or
// ?token=). Opening the socket counts as a presence connection; closing it
// counts as a disconnection.
func (a *API) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	if !a.requireMember(w, r, roomID, user) {
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	ctx := r.Context()

	if err := a.Presence.Connected(ctx, user.Username); err != nil {
		return
	}
	defer a.Presence.Disconnected(ctx, user.Username)

	// One channel for everything this client should see: the room's
	// messages, typing signals, read receipts, and global presence.
	events, unsubscribe := a.Hub.Subscribe(
		services.RoomTopic(roomID),
		services.RoomTypingTopic(roomID),
		services.RoomReadTopic(roomID),
		services.PresenceTopic,
	)
	defer unsubscribe()

	// Forward hub events to this connection.
	go func() {
		for evt := range events {
			if err := ws.writeJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		msg.RoomID = strings.TrimSpace(msg.RoomID)
		if msg.RoomID == "" {
			msg.RoomID = roomID
		}

		switch msg.Type {
		case "message":
			a.handleIncomingMessage(ctx, ws, user, msg)
		case "typing_start":
			a.Chat.SendTypingIndicator(msg.RoomID, user.Username, true)
		case "typing_stop":
			a.Chat.SendTypingIndicator(msg.RoomID, user.Username, false)
		case "read":
			if msg.MessageID != "" {
				_ = a.Receipts.MarkRead(ctx, msg.MessageID, msg.RoomID, user.ID.String())
			}
		case "delivered":
			if msg.MessageID != "" {
				_ = a.Receipts.MarkDelivered(ctx, msg.MessageID, user.ID.String())
			}
		case "ping":
			// Keepalive; the read deadline was already refreshed.
		default:
			// Ignore unknown types.
		}
	}
}

// handleIncomingMessage persists and fans out a message, then acknowledges
// it to the sender only.
func (a *API) handleIncomingMessage(ctx context.Context, ws *wsConn, user *models.User, msg ChatClientMessage) {
	saved, err := a.Chat.SendMessage(ctx, msg.RoomID, user.Username, msg.Content)
	if err != nil {
		_ = ws.writeJSON(models.Event{
			Type:  models.EventError,
			Error: "failed to send message",
		})
		return
	}

	_ = ws.writeJSON(models.Event{
		Type:    models.EventMessageAck,
		Payload: saved,
	})
}
