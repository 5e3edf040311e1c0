package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

func TestBuilder_Build(t *testing.T) {
	gs := game.NewGameState("Level 0")
	history := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "hello"},
		{Role: chat.ChatRoleAgent, Content: "welcome"},
	}

	messages, err := New().
		WithGameState(gs).
		WithHistory(history).
		WithUserMessage("go north").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	if messages[0].Role != chat.ChatRoleSystem || messages[0].Content != DMSystemPrompt {
		t.Errorf("first message must be the system prompt")
	}
	if messages[1].Content != "hello" || messages[2].Content != "welcome" {
		t.Errorf("history out of order: %+v", messages[1:3])
	}

	last := messages[len(messages)-1]
	if last.Role != chat.ChatRoleUser {
		t.Errorf("last role = %q, want user", last.Role)
	}

	var payload struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(last.Content), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.Level != "Level 0" {
		t.Errorf("payload level = %q", payload.Level)
	}
	if payload.Message != "go north" {
		t.Errorf("payload message = %q", payload.Message)
	}
}

func TestBuilder_RequiresGameState(t *testing.T) {
	if _, err := New().WithUserMessage("hi").Build(); err == nil {
		t.Error("expected error without game state")
	}
}

func TestBuilder_HistoryWindow(t *testing.T) {
	gs := game.NewGameState("Level 0")
	history := make([]chat.ChatMessage, 20)
	for i := range history {
		history[i] = chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: fmt.Sprintf("msg-%d", i),
		}
	}

	messages, err := New().
		WithGameState(gs).
		WithHistory(history).
		WithUserMessage("now").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// system + window + payload
	if len(messages) != DefaultHistoryLimit+2 {
		t.Fatalf("got %d messages, want %d", len(messages), DefaultHistoryLimit+2)
	}
	// Window keeps the most recent entries.
	if messages[1].Content != "msg-8" {
		t.Errorf("window start = %q, want msg-8", messages[1].Content)
	}
	if messages[len(messages)-2].Content != "msg-19" {
		t.Errorf("window end = %q, want msg-19", messages[len(messages)-2].Content)
	}
}

func TestBuilder_CustomSystemPromptAndLimit(t *testing.T) {
	gs := game.NewGameState("Level 0")
	history := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "a"},
		{Role: chat.ChatRoleAgent, Content: "b"},
		{Role: chat.ChatRoleUser, Content: "c"},
	}

	messages, err := New().
		WithGameState(gs).
		WithHistory(history).
		WithHistoryLimit(1).
		WithSystemPrompt("custom").
		WithUserMessage("go").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if messages[0].Content != "custom" {
		t.Errorf("system prompt = %q", messages[0].Content)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[1].Content != "c" {
		t.Errorf("windowed history = %q, want c", messages[1].Content)
	}
}

func TestInitPromptHash_StableAndSensitive(t *testing.T) {
	if InitPromptHash() != InitPromptHash() {
		t.Error("hash must be deterministic")
	}
	if len(InitPromptHash()) != 32 {
		t.Errorf("hash length = %d, want 32 hex chars", len(InitPromptHash()))
	}
}

func TestRenderInitPrompt(t *testing.T) {
	out := RenderInitPrompt("Level 0", "yellow wallpaper")
	if out == "" {
		t.Fatal("empty prompt")
	}
	for _, want := range []string{"Level 0", "yellow wallpaper"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
