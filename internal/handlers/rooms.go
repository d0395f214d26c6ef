package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // PRIVATE or GROUP, default GROUP
}

// CreateRoom creates a chat room with the caller as first member.
func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "room name is required")
		return
	}

	room := &models.ChatRoom{
		Name:      req.Name,
		Type:      models.RoomType(strings.ToUpper(req.Type)),
		CreatedBy: user.ID,
	}
	if room.Type != models.RoomPrivate && room.Type != models.RoomGroup {
		room.Type = models.RoomGroup
	}

	if err := a.Rooms.Create(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"room":    room,
	})
}

// ListRooms returns the caller's rooms.
func (a *API) ListRooms(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	rooms, err := a.Rooms.ForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rooms")
		return
	}
	if rooms == nil {
		rooms = []models.ChatRoom{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rooms":   rooms,
	})
}

// JoinRoom adds the caller to a room.
func (a *API) JoinRoom(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	if _, err := a.Rooms.FindByID(r.Context(), roomID); err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "room not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up room")
		return
	}

	if err := a.Rooms.AddMember(r.Context(), roomID, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join room")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
