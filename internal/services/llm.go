package services

import (
	"context"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
)

// LLMService is the narrative generator collaborator. Implementations
// return the raw completion text; all structure extraction happens in
// the engine, which tolerates malformed output.
type LLMService interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// Chat sends the message list and returns the raw completion.
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)
}
