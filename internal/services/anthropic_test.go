package services

import (
	"context"
	"testing"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
)

func TestSplitChatMessages(t *testing.T) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "You are the DM."},
		{Role: chat.ChatRoleUser, Content: "hello"},
		{Role: chat.ChatRoleSystem, Content: "Stay in character."},
		{Role: chat.ChatRoleAgent, Content: "welcome"},
	}

	system, conversation := splitChatMessages(messages)

	want := "You are the DM.\n\nStay in character."
	if system != want {
		t.Errorf("system = %q, want %q", system, want)
	}
	if len(conversation) != 2 {
		t.Fatalf("conversation length = %d, want 2", len(conversation))
	}
	if conversation[0].Role != chat.ChatRoleUser || conversation[1].Role != chat.ChatRoleAgent {
		t.Errorf("conversation roles = %+v", conversation)
	}
}

func TestSplitChatMessages_NoSystem(t *testing.T) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "hi"},
	}

	system, conversation := splitChatMessages(messages)
	if system != "" {
		t.Errorf("system = %q, want empty", system)
	}
	if len(conversation) != 1 {
		t.Errorf("conversation length = %d", len(conversation))
	}
}

func TestMockLLM_ResponseScript(t *testing.T) {
	m := NewMockLLM()
	m.Responses = []string{"first", "second"}

	for i, want := range []string{"first", "second", "second"} {
		got, err := m.Chat(context.Background(), nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if m.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3", m.CallCount())
	}
}
