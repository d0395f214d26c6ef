package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// sessionKeyPrefix is the Redis key prefix for token -> user lookups.
	sessionKeyPrefix = "session:"
	// userSessionKeyPrefix maps a user to their current token so old
	// sessions can be invalidated on a fresh sign-in.
	userSessionKeyPrefix = "user_session:"
)

// Sessions stores opaque session tokens in Redis.
type Sessions struct {
	client *redis.Client
}

func NewSessions(client *redis.Client) *Sessions {
	return &Sessions{client: client}
}

// Create issues a new session token for a user. Any existing session for the
// user is invalidated first so the expiry timer restarts at sign-in.
func (s *Sessions) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	s.InvalidateUser(ctx, userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, userSessionKeyPrefix+userID.String(), token, SessionDuration).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Validate resolves a session token to a user ID. ok is false for missing or
// expired tokens.
func (s *Sessions) Validate(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	userIDStr, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// Invalidate removes a session token.
func (s *Sessions) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userIDStr, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == nil && userIDStr != "" {
		s.client.Del(ctx, userSessionKeyPrefix+userIDStr)
	}

	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

// InvalidateUser removes the user's current session, if any.
func (s *Sessions) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	userKey := userSessionKeyPrefix + userID.String()

	token, err := s.client.Get(ctx, userKey).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, sessionKeyPrefix+token)
	}

	return s.client.Del(ctx, userKey).Err()
}
