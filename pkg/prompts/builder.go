package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

// DefaultHistoryLimit bounds the chat history window included in each
// generation request.
const DefaultHistoryLimit = 12

// Builder constructs the message list for one generation call using a
// fluent interface. The game state snapshot travels inside the user
// message as JSON, with the player's input injected as its "message"
// field, so the collaborator always sees state and input together.
type Builder struct {
	gs           *game.GameState
	history      []chat.ChatMessage
	userMessage  string
	systemPrompt string
	historyLimit int
}

// New creates a builder with default settings.
func New() *Builder {
	return &Builder{
		systemPrompt: DMSystemPrompt,
		historyLimit: DefaultHistoryLimit,
	}
}

// WithGameState sets the state snapshot serialized into the payload.
func (b *Builder) WithGameState(gs *game.GameState) *Builder {
	b.gs = gs
	return b
}

// WithHistory sets the prior conversation, windowed by the history limit.
func (b *Builder) WithHistory(history []chat.ChatMessage) *Builder {
	b.history = history
	return b
}

// WithUserMessage sets the player input (or dice feedback) for this call.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithSystemPrompt overrides the default DM system prompt.
func (b *Builder) WithSystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// WithHistoryLimit sets the history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message list for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}

	payload := struct {
		*game.GameState
		Message string `json:"message"`
	}{b.gs, b.userMessage}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompt payload: %w", err)
	}

	messages := make([]chat.ChatMessage, 0, len(b.history)+2)
	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: b.systemPrompt,
	})

	history := b.history
	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	messages = append(messages, history...)

	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: string(data),
	})
	return messages, nil
}
