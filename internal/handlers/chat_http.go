package handlers

import (
	"net/http"
	"strconv"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/store"
)

// ChatHistory loads a room's messages in creation order.
// Query params:
//
//	room_id (required)
//	limit   (optional; when set, serves an initial load through the
//	         Redis recent-message cache)
func (a *API) ChatHistory(w http.ResponseWriter, r *http.Request) {
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

	var msgs []models.Message
	var err error
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		limit, perr := strconv.Atoi(lStr)
		if perr != nil || limit <= 0 || limit > 100 {
			limit = 50
		}
		msgs, err = a.Chat.RecentHistory(r.Context(), roomID, limit)
	} else {
		msgs, err = a.Chat.History(r.Context(), roomID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": msgs,
	})
}

// UnreadMessages returns the caller's unread messages for a room.
func (a *API) UnreadMessages(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	msgs, err := a.Receipts.UnreadFor(r.Context(), roomID, user.ID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load unread messages")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": msgs,
	})
}

// UnreadCount returns the caller's unread count for a room.
func (a *API) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	count, err := a.Receipts.UnreadCount(r.Context(), roomID, user.ID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   count,
	})
}

// requireMember ensures the user belongs to the room before serving its data.
func (a *API) requireMember(w http.ResponseWriter, r *http.Request, roomID string, user *models.User) bool {
	ok, err := a.Rooms.IsMember(r.Context(), roomID, user.ID)
	if err != nil && err != store.ErrNotFound {
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "you must be a member of this room")
		return false
	}
	return true
}
