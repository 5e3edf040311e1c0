package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/backroomlabs/backroom-engine/internal/engine"
	"github.com/backroomlabs/backroom-engine/internal/intro"
	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/internal/session"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/dice"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func gameInitEvent() game.GameEvent {
	return game.GameEvent{Type: game.EventInit}
}

type stubLevels struct{}

func (stubLevels) Context(levelID string) (string, error) { return "yellow rooms", nil }

func newTurnHandler(llm *services.MockLLM) *TurnHandler {
	cache := services.NewMockCache()
	sessions := session.NewStore(cache, time.Hour, testLogger())
	intros := intro.NewCache(cache, llm, time.Hour, testLogger())
	eng := engine.New(llm, sessions, intros, stubLevels{}, dice.NewWithSeed(1), engine.Config{
		DefaultLevel: "Level 0",
	}, testLogger())
	return NewTurnHandler(eng, testLogger())
}

func decodeFrames(t *testing.T, body string) []chat.StreamChunk {
	t.Helper()
	var chunks []chat.StreamChunk
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var c chat.StreamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func TestTurnHandler_MethodNotAllowed(t *testing.T) {
	handler := newTurnHandler(services.NewMockLLM())

	req := httptest.NewRequest(http.MethodGet, "/v1/turn", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
}

func TestTurnHandler_InvalidBody(t *testing.T) {
	handler := newTurnHandler(services.NewMockLLM())

	req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTurnHandler_ValidationError(t *testing.T) {
	handler := newTurnHandler(services.NewMockLLM())

	body, _ := json.Marshal(chat.TurnRequest{}) // missing event type
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTurnHandler_StreamsInitTurn(t *testing.T) {
	llm := services.NewMockLLM()
	llm.Responses = []string{`{"message": "The lights hum.", "suggestions": ["Look around"]}`}
	handler := newTurnHandler(llm)

	body, _ := json.Marshal(chat.TurnRequest{
		Event: gameInitEvent(),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("X-Session-Id") == "" {
		t.Error("missing X-Session-Id header")
	}

	chunks := decodeFrames(t, w.Body.String())
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks: %+v", len(chunks), chunks)
	}
	if chunks[0].Type != chat.ChunkMessage || chunks[0].Text != "The lights hum." {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	if chunks[1].Type != chat.ChunkState {
		t.Errorf("second chunk = %+v", chunks[1])
	}
	if chunks[2].Type != chat.ChunkSuggestions {
		t.Errorf("third chunk = %+v", chunks[2])
	}
}

func TestTurnHandler_PreservesClientSessionID(t *testing.T) {
	llm := services.NewMockLLM()
	llm.Responses = []string{`{"message": "Hi.", "suggestions": ["Go"]}`}
	handler := newTurnHandler(llm)

	body, _ := json.Marshal(chat.TurnRequest{
		Event:     gameInitEvent(),
		SessionID: "my-session",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Session-Id"); got != "my-session" {
		t.Errorf("X-Session-Id = %q, want my-session", got)
	}
}

func TestTurnHandler_EngineErrorBeforeStream(t *testing.T) {
	llm := services.NewMockLLM()
	llm.ChatFunc = func(ctx context.Context, _ []chat.ChatMessage) (string, error) {
		return "", errors.New("model overloaded")
	}
	handler := newTurnHandler(llm)

	body, _ := json.Marshal(chat.TurnRequest{Event: gameInitEvent()})
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
