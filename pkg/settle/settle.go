// Package settle applies typed settlement directives to a game state
// snapshot: vitals clamping, inventory stacking and removal, and level
// transitions. It is the only code that mutates game state.
package settle

import (
	"fmt"
	"strings"

	"github.com/backroomlabs/backroom-engine/pkg/game"
)

const (
	sanityMax = 100
	vitalsMin = 0
)

// Delta is the net effect of one settlement pass, emitted to the
// client so it can narrate mechanical changes. A nil Delta means the
// pass was a no-op and callers may skip the settlement notification.
type Delta struct {
	HPChange        int      `json:"hp_change,omitempty"`
	SanityChange    int      `json:"sanity_change,omitempty"`
	ItemsAdded      []string `json:"items_added,omitempty"`
	ItemsRemoved    []string `json:"items_removed,omitempty"`
	LevelTransition string   `json:"level_transition,omitempty"`
}

// IsZero reports whether no field changed.
func (d *Delta) IsZero() bool {
	return d == nil || (d.HPChange == 0 &&
		d.SanityChange == 0 &&
		len(d.ItemsAdded) == 0 &&
		len(d.ItemsRemoved) == 0 &&
		d.LevelTransition == "")
}

// Summary renders a compact human-readable record of the delta, used
// for system status messages and logs.
func (d *Delta) Summary() string {
	if d.IsZero() {
		return ""
	}
	var parts []string
	if d.HPChange != 0 {
		parts = append(parts, fmt.Sprintf("HP %+d", d.HPChange))
	}
	if d.SanityChange != 0 {
		parts = append(parts, fmt.Sprintf("Sanity %+d", d.SanityChange))
	}
	if len(d.ItemsAdded) > 0 {
		parts = append(parts, "Gained: "+strings.Join(d.ItemsAdded, ", "))
	}
	if len(d.ItemsRemoved) > 0 {
		parts = append(parts, "Lost: "+strings.Join(d.ItemsRemoved, ", "))
	}
	if d.LevelTransition != "" {
		parts = append(parts, "Level -> "+d.LevelTransition)
	}
	return strings.Join(parts, " | ")
}

// Apply settles updates against a deep copy of gs and returns the new
// snapshot plus the delta record. The input state is never mutated, so
// callers keep their original snapshot for history and concurrent
// reads. The returned delta is nil when nothing changed.
//
// HP and sanity changes are additive and clamped afterward; the delta
// records the requested change, not the clamped result.
func Apply(gs *game.GameState, u *game.Updates) (*game.GameState, *Delta, error) {
	ns, err := gs.DeepCopy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to copy gamestate: %w", err)
	}
	if u.IsZero() {
		return ns, nil, nil
	}

	d := &Delta{}

	if u.HPChange != 0 {
		ns.Vitals.HP = clamp(ns.Vitals.HP+u.HPChange, vitalsMin, ns.Vitals.MaxHP)
		d.HPChange = u.HPChange
	}
	if u.SanityChange != 0 {
		ns.Vitals.Sanity = clamp(ns.Vitals.Sanity+u.SanityChange, vitalsMin, sanityMax)
		d.SanityChange = u.SanityChange
	}

	for _, add := range u.AddItems {
		if rec := addItem(ns, add); rec != "" {
			d.ItemsAdded = append(d.ItemsAdded, rec)
		}
	}

	for _, ref := range u.RemoveItems {
		if rec := removeItem(ns, ref); rec != "" {
			d.ItemsRemoved = append(d.ItemsRemoved, rec)
		}
	}

	if u.NewLevel != "" {
		ns.Level = u.NewLevel
		d.LevelTransition = u.NewLevel
	}

	if d.IsZero() {
		return ns, nil, nil
	}
	return ns, d, nil
}

// addItem stacks onto an existing slot by id or appends a new one.
// The returned record is "<name> x<qty>" for stacks, "<name>" for new
// slots, or "" when the entry could not resolve an identity.
func addItem(gs *game.GameState, add game.Item) string {
	if add.ID == "" {
		add.ID = Slugify(add.Name)
	}
	if add.ID == "" && add.Name == "" {
		return ""
	}
	if add.Quantity < 1 {
		add.Quantity = 1
	}

	for _, it := range gs.Inventory {
		if it == nil || it.ID != add.ID {
			continue
		}
		it.Quantity += add.Quantity
		return fmt.Sprintf("%s x%d", it.DisplayName(), it.Quantity)
	}

	cp := add
	gs.Inventory = append(gs.Inventory, &cp)
	return cp.DisplayName()
}

// removeItem decrements the first matching slot, deleting it when the
// quantity reaches zero. Returns the display name regardless of
// partial vs full removal, or "" when nothing matched.
func removeItem(gs *game.GameState, ref string) string {
	for i, it := range gs.Inventory {
		if it == nil {
			continue
		}
		if it.ID != ref && !strings.EqualFold(it.Name, ref) {
			continue
		}
		name := it.DisplayName()
		if it.Quantity > 1 {
			it.Quantity--
		} else {
			gs.Inventory = append(gs.Inventory[:i], gs.Inventory[i+1:]...)
		}
		return name
	}
	return ""
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
