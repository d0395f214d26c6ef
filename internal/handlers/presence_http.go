package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chatapp/chatapp-backend/internal/models"
)

// AllPresence returns every known user's current status.
func (a *API) AllPresence(w http.ResponseWriter, r *http.Request) {
	if user := a.currentUser(w, r); user == nil {
		return
	}

	statuses, err := a.Presence.GetAllStatuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load presence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"statuses": statuses,
	})
}

// UserPresence returns a single user's last known status, OFFLINE for
// unknown users.
func (a *API) UserPresence(w http.ResponseWriter, r *http.Request) {
	if user := a.currentUser(w, r); user == nil {
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	status, err := a.Presence.GetStatus(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load presence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": username,
		"status":   status,
	})
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus applies a user-initiated status override (AWAY, BUSY, ONLINE,
// OFFLINE) for the caller, independent of connection count.
func (a *API) SetStatus(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(w, r)
	if user == nil {
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := models.UserStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be one of ONLINE, OFFLINE, AWAY, BUSY")
		return
	}

	if err := a.Presence.SetStatus(r.Context(), user.Username, status); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  status,
	})
}
