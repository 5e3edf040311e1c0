// Package chat defines the message and wire types shared by the turn
// engine, the LLM services, and the transport layer.
package chat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/backroomlabs/backroom-engine/pkg/game"
)

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Dungeon Master
	ChatRoleSystem = "system"    // Engine status / prompts
)

// MaxMessageLength bounds player input to keep prompts predictable.
const MaxMessageLength = 2000

// ChatMessage is a single message in the conversation, in the role
// format the LLM APIs expect.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the engine's input for one turn.
type TurnRequest struct {
	Event       game.GameEvent  `json:"event"`
	PlayerInput string          `json:"player_input,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	GameState   *game.GameState `json:"game_state,omitempty"`
}

// Validate checks structural requirements before a turn starts.
// Unknown event types are not rejected here; the engine terminates
// those turns quietly to stay forward compatible.
func (r *TurnRequest) Validate() error {
	if r.Event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if len(r.PlayerInput) > MaxMessageLength {
		return fmt.Errorf("player input exceeds %d characters", MaxMessageLength)
	}
	if r.Event.Type == game.EventMessage && r.PlayerInput == "" {
		return fmt.Errorf("player input is required for message events")
	}
	if (r.Event.Type == game.EventUse || r.Event.Type == game.EventDrop) && r.Event.ItemID == "" {
		return fmt.Errorf("item_id is required for %s events", r.Event.Type)
	}
	return nil
}
