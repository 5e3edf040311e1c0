// Package session persists per-session message history and the latest
// game-state snapshot across turns. Reads prefer an in-process cache
// and fall back to the durable TTL-backed store; a down backend
// degrades to memory-only operation rather than failing turns.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

const keyPrefix = "session:"

// DefaultTTL matches a typical play-session length.
const DefaultTTL = 24 * time.Hour

// Session is the durable per-player record.
type Session struct {
	SessionID string             `json:"session_id"`
	Messages  []chat.ChatMessage `json:"messages"`
	GameState *game.GameState    `json:"game_state,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store manages sessions across the in-process map and the cache
// backend. Updates are last-write-wins: there is no per-session
// locking or version token, which is the documented baseline of the
// source system (see DESIGN.md).
type Store struct {
	cache  services.Cache
	logger *slog.Logger
	ttl    time.Duration

	mu  sync.RWMutex
	mem map[string]*Session
}

// NewStore creates a session store over the given cache backend.
func NewStore(cache services.Cache, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache:  cache,
		logger: logger,
		ttl:    ttl,
		mem:    make(map[string]*Session),
	}
}

// CreateOrReset starts a session from scratch: history cleared, state
// set to initialState. Used for init events.
func (s *Store) CreateOrReset(ctx context.Context, sessionID string, initialState *game.GameState) *Session {
	now := time.Now().UTC()
	sess := &Session{
		SessionID: sessionID,
		Messages:  make([]chat.ChatMessage, 0),
		GameState: initialState,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.mem[sessionID] = sess
	s.mu.Unlock()

	s.persist(ctx, sess)
	s.logger.Info("Session created/reset", "session_id", sessionID)
	return sess
}

// GetOrCreate returns the session, creating a fresh empty one when the
// id is unknown. A miss for an id the caller expected to exist is an
// anomaly (usually an expired TTL); history is never fabricated, so
// the fresh session starts empty and the event is logged.
func (s *Store) GetOrCreate(ctx context.Context, sessionID string, fallbackState *game.GameState) *Session {
	if sess := s.Get(ctx, sessionID); sess != nil {
		return sess
	}

	s.logger.Warn("Session not found, creating empty session", "session_id", sessionID)
	return s.CreateOrReset(ctx, sessionID, fallbackState)
}

// Get returns the session or nil when it does not exist. Memory is
// consulted first, then the durable tier.
func (s *Store) Get(ctx context.Context, sessionID string) *Session {
	s.mu.RLock()
	sess, ok := s.mem[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	data, err := s.cache.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		s.logger.Warn("Session store read failed, treating as miss",
			"session_id", sessionID, "error", err)
		return nil
	}
	if data == "" {
		return nil
	}

	var loaded Session
	if err := json.Unmarshal([]byte(data), &loaded); err != nil {
		s.logger.Error("Failed to unmarshal session, treating as miss",
			"session_id", sessionID, "error", err)
		return nil
	}

	s.mu.Lock()
	s.mem[sessionID] = &loaded
	s.mu.Unlock()
	return &loaded
}

// Update replaces the session's messages and game state and persists
// the record. Returns false when the session does not exist.
func (s *Store) Update(ctx context.Context, sessionID string, messages []chat.ChatMessage, gs *game.GameState) bool {
	sess := s.Get(ctx, sessionID)
	if sess == nil {
		s.logger.Warn("Session not found for update", "session_id", sessionID)
		return false
	}

	if messages != nil {
		sess.Messages = messages
	}
	if gs != nil {
		sess.GameState = gs
	}
	sess.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.mem[sessionID] = sess
	s.mu.Unlock()

	s.persist(ctx, sess)
	return true
}

// Delete removes the session from both tiers.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.mem, sessionID)
	s.mu.Unlock()

	if err := s.cache.Del(ctx, keyPrefix+sessionID); err != nil {
		s.logger.Warn("Failed to delete session from store",
			"session_id", sessionID, "error", err)
	}
}

// persist writes through to the durable tier. Failures degrade to
// memory-only with a warning; the turn proceeds.
func (s *Store) persist(ctx context.Context, sess *Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error("Failed to marshal session", "session_id", sess.SessionID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, keyPrefix+sess.SessionID, string(data), s.ttl); err != nil {
		s.logger.Warn("Failed to persist session, continuing with memory copy",
			"session_id", sess.SessionID, "error", err)
	}
}

// Ping reports backend health for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("session store ping failed: %w", err)
	}
	return nil
}
