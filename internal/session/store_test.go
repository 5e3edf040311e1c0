package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func setupStore(t *testing.T) (*Store, *services.RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redis := services.NewRedisService(mr.Addr(), testLogger())
	t.Cleanup(func() { _ = redis.Close() })

	return NewStore(redis, time.Hour, testLogger()), redis, mr
}

func TestStore_CreateOrReset(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	gs := game.NewGameState("Level 0")
	sess := store.CreateOrReset(ctx, "s1", gs)

	if sess.SessionID != "s1" {
		t.Errorf("session id = %q", sess.SessionID)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("fresh session has %d messages", len(sess.Messages))
	}
	if sess.GameState.Level != "Level 0" {
		t.Errorf("game state not stored")
	}
}

func TestStore_ResetClearsHistory(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))
	store.Update(ctx, "s1", []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "hello"},
	}, nil)

	sess := store.CreateOrReset(ctx, "s1", game.NewGameState("Level 1"))
	if len(sess.Messages) != 0 {
		t.Errorf("reset kept %d messages, want 0", len(sess.Messages))
	}
	if sess.GameState.Level != "Level 1" {
		t.Errorf("reset kept old state: %q", sess.GameState.Level)
	}
}

func TestStore_UpdatePersistsAcrossInstances(t *testing.T) {
	store, redis, _ := setupStore(t)
	ctx := context.Background()

	store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))
	gs := game.NewGameState("Level 1")
	ok := store.Update(ctx, "s1", []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "go north"},
		{Role: chat.ChatRoleAgent, Content: "you walk north"},
	}, gs)
	if !ok {
		t.Fatal("Update returned false")
	}

	// A second store over the same backend simulates a restart.
	fresh := NewStore(redis, time.Hour, testLogger())
	sess := fresh.Get(ctx, "s1")
	if sess == nil {
		t.Fatal("session not found after restart")
	}
	if len(sess.Messages) != 2 {
		t.Errorf("got %d messages, want 2", len(sess.Messages))
	}
	if sess.GameState.Level != "Level 1" {
		t.Errorf("game state level = %q", sess.GameState.Level)
	}
}

func TestStore_UpdateUnknownSession(t *testing.T) {
	store, _, _ := setupStore(t)
	if ok := store.Update(context.Background(), "ghost", nil, nil); ok {
		t.Error("Update of unknown session should return false")
	}
}

func TestStore_GetMiss(t *testing.T) {
	store, _, _ := setupStore(t)
	if sess := store.Get(context.Background(), "missing"); sess != nil {
		t.Errorf("expected nil for unknown session, got %+v", sess)
	}
}

func TestStore_GetOrCreateOnMiss(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	fallback := game.NewGameState("Level 2")
	sess := store.GetOrCreate(ctx, "expired", fallback)
	if sess == nil {
		t.Fatal("expected fresh session")
	}
	if len(sess.Messages) != 0 {
		t.Error("fresh session must start with empty history")
	}
	if sess.GameState.Level != "Level 2" {
		t.Errorf("fallback state not used: %q", sess.GameState.Level)
	}
}

func TestStore_MemoryFirstRead(t *testing.T) {
	store, _, mr := setupStore(t)
	ctx := context.Background()

	store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))

	// Wipe the durable tier; the in-process copy must still serve.
	mr.FlushAll()

	if sess := store.Get(ctx, "s1"); sess == nil {
		t.Error("memory tier should serve after backend flush")
	}
}

func TestStore_DegradesWhenBackendDown(t *testing.T) {
	mock := services.NewMockCache()
	mock.SetError(errors.New("connection refused"))
	store := NewStore(mock, time.Hour, testLogger())
	ctx := context.Background()

	sess := store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))
	if sess == nil {
		t.Fatal("create must succeed with a down backend")
	}

	if got := store.Get(ctx, "s1"); got == nil {
		t.Error("memory-only session should still be readable")
	}
	if ok := store.Update(ctx, "s1", []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "x"}}, nil); !ok {
		t.Error("update must succeed with a down backend")
	}
}

func TestStore_Delete(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))
	store.Delete(ctx, "s1")

	if sess := store.Get(ctx, "s1"); sess != nil {
		t.Error("session survived delete")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	store, _, mr := setupStore(t)
	ctx := context.Background()

	store.CreateOrReset(ctx, "s1", game.NewGameState("Level 0"))

	// Expire the durable entry and drop the memory tier.
	mr.FastForward(2 * time.Hour)
	fresh := NewStore(services.NewRedisService(mr.Addr(), testLogger()), time.Hour, testLogger())

	if sess := fresh.Get(ctx, "s1"); sess != nil {
		t.Error("expired session should be a miss")
	}
}
