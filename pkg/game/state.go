package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attributes are the six core ability scores. Field names match the
// wire protocol used by the backend and frontend.
type Attributes struct {
	STR int `json:"STR"`
	DEX int `json:"DEX"`
	CON int `json:"CON"`
	INT int `json:"INT"`
	WIS int `json:"WIS"`
	CHA int `json:"CHA"`
}

// Vitals track the player's survival meters. HP never exceeds MaxHP,
// sanity is bounded to [0, 100]. Bounds are enforced by the settlement
// engine, not here.
type Vitals struct {
	HP     int `json:"hp"`
	MaxHP  int `json:"maxHp"`
	Sanity int `json:"sanity"`
}

// Item is a stackable inventory entry. Identity for stacking and
// removal is by ID, with a name-based fallback.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// DefaultTime is 8:00 AM in minutes from midnight.
const DefaultTime = 480

// GameState is the snapshot of a play session. It is owned by exactly
// one session, mutated only through settlement, and replaced wholesale
// (never merged) when the narrative generator supplies a new snapshot.
type GameState struct {
	Level      string     `json:"level"`
	Time       int        `json:"time"`
	Attributes Attributes `json:"attributes"`
	Vitals     Vitals     `json:"vitals"`

	// Inventory permits nil slots for frontend compatibility; the
	// engine skips them.
	Inventory []*Item `json:"inventory"`
}

// NewGameState returns a snapshot with sane defaults for a fresh run.
func NewGameState(level string) *GameState {
	return &GameState{
		Level: level,
		Time:  DefaultTime,
		Attributes: Attributes{
			STR: 10, DEX: 10, CON: 10, INT: 10, WIS: 10, CHA: 10,
		},
		Vitals: Vitals{
			HP:     10,
			MaxHP:  10,
			Sanity: 100,
		},
		Inventory: make([]*Item, 0),
	}
}

// DeepCopy returns an independent copy of the game state via a JSON
// round trip, so callers can hold the original snapshot while a copy
// is mutated.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	var cp GameState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate copy: %w", err)
	}
	return &cp, nil
}

// FindItem returns the first non-nil inventory item whose ID or
// case-insensitive name matches ref, or nil.
func (gs *GameState) FindItem(ref string) *Item {
	for _, it := range gs.Inventory {
		if it == nil {
			continue
		}
		if it.ID == ref || strings.EqualFold(it.Name, ref) {
			return it
		}
	}
	return nil
}

// DisplayName prefers the item name and falls back to the ID.
func (it *Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return it.ID
}
