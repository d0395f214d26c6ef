package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/chatapp/chatapp-backend/internal/config"
	"github.com/chatapp/chatapp-backend/internal/database"
	"github.com/chatapp/chatapp-backend/internal/handlers"
	"github.com/chatapp/chatapp-backend/internal/middleware"
	"github.com/chatapp/chatapp-backend/internal/routes"
	"github.com/chatapp/chatapp-backend/internal/services"
	"github.com/chatapp/chatapp-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := store.EnsureMessageIndexes(context.Background(), database.DB); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB message indexes: %v", err)
	} else {
		log.Println("✅ MongoDB message indexes ensured")
	}

	// Stores
	users := store.NewPostgresUserStore(database.PostgresDB)
	rooms := store.NewPostgresRoomStore(database.PostgresDB)
	messages := store.NewMongoMessageStore(database.DB)

	// Fan-out: local hub bridged across instances via Redis pub/sub
	hub := services.NewHub()
	bridge := services.NewRedisBridge(hub, database.RedisClient)
	bridge.Start(context.Background())

	cache := services.NewRecentCache(database.RedisClient)
	sessions := services.NewSessions(database.RedisClient)

	api := &handlers.API{
		Users:    users,
		Rooms:    rooms,
		Hub:      hub,
		Presence: services.NewPresenceService(users, bridge),
		Receipts: services.NewReceiptService(messages, bridge),
		Chat:     services.NewChatService(users, rooms, messages, bridge, cache),
		Sessions: sessions,
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit)

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, api)

	log.Printf("🚀 Chat backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
