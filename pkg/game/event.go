package game

import "encoding/json"

// EventType tags an incoming player event.
type EventType string

const (
	EventInit    EventType = "init"
	EventMessage EventType = "message"
	EventUse     EventType = "use"
	EventDrop    EventType = "drop"
)

// GameEvent is the immutable input that drives routing for one turn.
type GameEvent struct {
	Type     EventType `json:"type"`
	ItemID   string    `json:"item_id,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
}

// DieType names the dice the narrative generator may request.
type DieType string

const (
	DieD6   DieType = "d6"
	DieD20  DieType = "d20"
	DieD100 DieType = "d100"
)

// LogicEvent is a probabilistic situation proposed by the narrative
// generator. It lives for a single turn-loop iteration and must be
// cleared after resolution so the loop terminates.
type LogicEvent struct {
	Name     string         `json:"name"`
	DieType  DieType        `json:"die_type"`
	Outcomes []EventOutcome `json:"outcomes"`
}

// EventOutcome maps an inclusive roll range to a result.
type EventOutcome struct {
	Range  []int         `json:"range"`
	Result OutcomeResult `json:"result"`
}

// Contains reports whether roll falls within the outcome's inclusive
// [min, max] range. Malformed ranges never match.
func (o *EventOutcome) Contains(roll int) bool {
	if len(o.Range) != 2 {
		return false
	}
	return o.Range[0] <= roll && roll <= o.Range[1]
}

// OutcomeResult carries the narrative content of a matched outcome and
// any mechanical updates to apply.
type OutcomeResult struct {
	Content string   `json:"content"`
	Updates *Updates `json:"updates,omitempty"`
}

// UnmarshalJSON tolerates the legacy shape where update keys sit at
// the top level of the result instead of under "updates".
func (r *OutcomeResult) UnmarshalJSON(data []byte) error {
	type alias OutcomeResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = OutcomeResult(a)

	if r.Updates == nil {
		var u Updates
		if err := json.Unmarshal(data, &u); err == nil && !u.IsZero() {
			r.Updates = &u
		}
	}
	return nil
}

// DiceRoll is a pure record of one resolved roll, exposed for
// observation (UI animation, logs). Mutation reads the matched
// outcome, never this record.
type DiceRoll struct {
	Type   DieType `json:"type"`
	Result int     `json:"result"`
	Reason string  `json:"reason,omitempty"`
}
