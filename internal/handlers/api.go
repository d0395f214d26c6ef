package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chatapp/chatapp-backend/internal/models"
	"github.com/chatapp/chatapp-backend/internal/services"
	"github.com/chatapp/chatapp-backend/internal/store"
)

// API carries the services the HTTP and WebSocket handlers depend on.
type API struct {
	Users    store.UserStore
	Rooms    store.RoomStore
	Hub      *services.Hub
	Presence *services.PresenceService
	Receipts *services.ReceiptService
	Chat     *services.ChatService
	Sessions *services.Sessions
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// currentUser resolves the request's session token to a user. Returns nil
// after writing an error response when the request is unauthenticated.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return nil
	}

	userID, ok, err := a.Sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return nil
	}

	user, err := a.Users.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil
	}
	return user
}
