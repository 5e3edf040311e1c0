package chat

import (
	"github.com/backroomlabs/backroom-engine/pkg/game"
	"github.com/backroomlabs/backroom-engine/pkg/settle"
)

// ChunkType tags a streamed turn chunk. Each chunk type is
// independently optional per turn.
type ChunkType string

const (
	ChunkMessage     ChunkType = "message"
	ChunkDiceRoll    ChunkType = "dice_roll"
	ChunkSettlement  ChunkType = "settlement"
	ChunkState       ChunkType = "state"
	ChunkSuggestions ChunkType = "suggestions"
	ChunkError       ChunkType = "error"
)

const (
	SenderDM     = "dm"
	SenderSystem = "system"
)

// StreamChunk is one typed unit of turn output, emitted as it becomes
// available: narrative messages, dice notifications, settlement
// deltas, the updated state, and the suggestion list.
type StreamChunk struct {
	Type    ChunkType       `json:"type"`
	Text    string          `json:"text,omitempty"`
	Sender  string          `json:"sender,omitempty"`
	Dice    *game.DiceRoll  `json:"dice,omitempty"`
	Delta   *settle.Delta   `json:"delta,omitempty"`
	State   *game.GameState `json:"state,omitempty"`
	Options []string        `json:"options,omitempty"`
}

func MessageChunk(text, sender string) StreamChunk {
	return StreamChunk{Type: ChunkMessage, Text: text, Sender: sender}
}

func DiceChunk(roll game.DiceRoll) StreamChunk {
	return StreamChunk{Type: ChunkDiceRoll, Dice: &roll}
}

func SettlementChunk(delta *settle.Delta) StreamChunk {
	return StreamChunk{Type: ChunkSettlement, Delta: delta}
}

func StateChunk(gs *game.GameState) StreamChunk {
	return StreamChunk{Type: ChunkState, State: gs}
}

func SuggestionsChunk(options []string) StreamChunk {
	return StreamChunk{Type: ChunkSuggestions, Options: options}
}

func ErrorChunk(text string) StreamChunk {
	return StreamChunk{Type: ChunkError, Text: text, Sender: SenderSystem}
}
