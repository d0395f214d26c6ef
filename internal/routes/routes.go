package routes

import (
	"github.com/chatapp/chatapp-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux, api *handlers.API) {
	// Auth
	r.Post("/api/auth/signup", api.Signup)
	r.Post("/api/auth/signin", api.Signin)
	r.Get("/api/auth/me", api.Me)

	// Rooms
	r.Post("/api/rooms", api.CreateRoom)
	r.Get("/api/rooms", api.ListRooms)
	r.Post("/api/rooms/join", api.JoinRoom)

	// Chat (MongoDB history + Redis recent cache)
	r.Get("/api/chat/history", api.ChatHistory)
	r.Get("/api/chat/unread", api.UnreadMessages)
	r.Get("/api/chat/unread-count", api.UnreadCount)

	// Presence
	r.Get("/api/presence", api.AllPresence)
	r.Get("/api/presence/user", api.UserPresence)
	r.Put("/api/presence/status", api.SetStatus)

	// WebSocket gateway for realtime chat
	r.Get("/ws/chat", api.ChatWebSocket)
}
