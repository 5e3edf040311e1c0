package game

import "encoding/json"

// Updates is the typed settlement directive extracted from narrative
// generator output. The source protocol is weakly typed and has grown
// alias keys over time; those are normalized here at the decode
// boundary so the settlement engine only ever sees one shape.
type Updates struct {
	HPChange     int      `json:"hp_change,omitempty"`
	SanityChange int      `json:"sanity_change,omitempty"`
	NewLevel     string   `json:"new_level,omitempty"`
	AddItems     []Item   `json:"add_items,omitempty"`
	RemoveItems  []string `json:"remove_items,omitempty"`
}

// IsZero reports whether the directive would have no effect.
func (u *Updates) IsZero() bool {
	return u == nil || (u.HPChange == 0 &&
		u.SanityChange == 0 &&
		u.NewLevel == "" &&
		len(u.AddItems) == 0 &&
		len(u.RemoveItems) == 0)
}

// UnmarshalJSON accepts both "hp"/"hp_change" and
// "sanity"/"sanity_change" for backward compatibility with older
// prompt versions. The explicit *_change key wins when both appear.
func (u *Updates) UnmarshalJSON(data []byte) error {
	var wire struct {
		HP           *int     `json:"hp"`
		HPChange     *int     `json:"hp_change"`
		Sanity       *int     `json:"sanity"`
		SanityChange *int     `json:"sanity_change"`
		NewLevel     string   `json:"new_level"`
		AddItems     []Item   `json:"add_items"`
		RemoveItems  []string `json:"remove_items"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch {
	case wire.HPChange != nil:
		u.HPChange = *wire.HPChange
	case wire.HP != nil:
		u.HPChange = *wire.HP
	}
	switch {
	case wire.SanityChange != nil:
		u.SanityChange = *wire.SanityChange
	case wire.Sanity != nil:
		u.SanityChange = *wire.Sanity
	}
	u.NewLevel = wire.NewLevel
	u.AddItems = wire.AddItems
	u.RemoveItems = wire.RemoveItems
	return nil
}
