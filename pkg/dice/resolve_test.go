package dice

import (
	"testing"

	"github.com/backroomlabs/backroom-engine/pkg/game"
)

// fixedSource always returns the same roll.
type fixedSource struct {
	result int
	sides  []int
}

func (f *fixedSource) Roll(sides, modifier int, advantage, disadvantage bool) int {
	f.sides = append(f.sides, sides)
	return f.result
}

func skillCheckEvent() *game.LogicEvent {
	return &game.LogicEvent{
		Name:    "Climb the collapsed shelving",
		DieType: game.DieD20,
		Outcomes: []game.EventOutcome{
			{Range: []int{11, 20}, Result: game.OutcomeResult{Content: "Succeed"}},
			{Range: []int{1, 10}, Result: game.OutcomeResult{Content: "Fail"}},
		},
	}
}

func TestResolveEvent_MatchesOutcome(t *testing.T) {
	src := &fixedSource{result: 15}
	roll, outcome := ResolveEvent(src, skillCheckEvent())

	if roll.Result != 15 {
		t.Errorf("roll result = %d, want 15", roll.Result)
	}
	if roll.Type != game.DieD20 {
		t.Errorf("roll type = %s, want d20", roll.Type)
	}
	if roll.Reason != "Climb the collapsed shelving" {
		t.Errorf("roll reason = %q", roll.Reason)
	}
	if outcome == nil {
		t.Fatal("expected an outcome match")
	}
	if outcome.Result.Content != "Succeed" {
		t.Errorf("outcome content = %q, want Succeed", outcome.Result.Content)
	}
}

func TestResolveEvent_RangeBoundariesInclusive(t *testing.T) {
	tests := []struct {
		roll int
		want string
	}{
		{1, "Fail"},
		{10, "Fail"},
		{11, "Succeed"},
		{20, "Succeed"},
	}
	for _, tc := range tests {
		_, outcome := ResolveEvent(&fixedSource{result: tc.roll}, skillCheckEvent())
		if outcome == nil {
			t.Fatalf("roll %d: expected outcome", tc.roll)
		}
		if outcome.Result.Content != tc.want {
			t.Errorf("roll %d: content = %q, want %q", tc.roll, outcome.Result.Content, tc.want)
		}
	}
}

func TestResolveEvent_GapReturnsNilOutcome(t *testing.T) {
	ev := &game.LogicEvent{
		Name:    "Sparse check",
		DieType: game.DieD20,
		Outcomes: []game.EventOutcome{
			{Range: []int{1, 5}, Result: game.OutcomeResult{Content: "Low"}},
			{Range: []int{15, 20}, Result: game.OutcomeResult{Content: "High"}},
		},
	}

	roll, outcome := ResolveEvent(&fixedSource{result: 10}, ev)
	if outcome != nil {
		t.Errorf("roll in gap matched outcome %q, want nil", outcome.Result.Content)
	}
	if roll.Result != 10 {
		t.Errorf("roll result = %d, want 10", roll.Result)
	}
}

func TestResolveEvent_UnknownDieFallsBackToD20(t *testing.T) {
	ev := &game.LogicEvent{
		Name:    "Weird die",
		DieType: game.DieType("d13"),
		Outcomes: []game.EventOutcome{
			{Range: []int{1, 20}, Result: game.OutcomeResult{Content: "Any"}},
		},
	}

	src := &fixedSource{result: 7}
	roll, outcome := ResolveEvent(src, ev)

	if len(src.sides) != 1 || src.sides[0] != 20 {
		t.Errorf("rolled sides = %v, want [20]", src.sides)
	}
	if roll.Type != game.DieD20 {
		t.Errorf("roll type = %s, want d20 fallback", roll.Type)
	}
	if outcome == nil {
		t.Error("expected outcome match after fallback")
	}
}

func TestResolveEvent_UnsortedOutcomes(t *testing.T) {
	// Authored out of order; matching still honors ascending range-min.
	ev := &game.LogicEvent{
		Name:    "Unordered",
		DieType: game.DieD6,
		Outcomes: []game.EventOutcome{
			{Range: []int{5, 6}, Result: game.OutcomeResult{Content: "High"}},
			{Range: []int{1, 4}, Result: game.OutcomeResult{Content: "Low"}},
		},
	}

	_, outcome := ResolveEvent(&fixedSource{result: 3}, ev)
	if outcome == nil || outcome.Result.Content != "Low" {
		t.Fatalf("expected Low outcome, got %+v", outcome)
	}
}

func TestResolveEvent_DoesNotMutateEvent(t *testing.T) {
	ev := &game.LogicEvent{
		Name:    "Order check",
		DieType: game.DieD6,
		Outcomes: []game.EventOutcome{
			{Range: []int{5, 6}, Result: game.OutcomeResult{Content: "High"}},
			{Range: []int{1, 4}, Result: game.OutcomeResult{Content: "Low"}},
		},
	}

	ResolveEvent(&fixedSource{result: 3}, ev)
	if ev.Outcomes[0].Result.Content != "High" {
		t.Error("ResolveEvent reordered the caller's outcomes slice")
	}
}

func TestSides(t *testing.T) {
	tests := []struct {
		dt    game.DieType
		sides int
		ok    bool
	}{
		{game.DieD6, 6, true},
		{game.DieD20, 20, true},
		{game.DieD100, 100, true},
		{game.DieType("d13"), 0, false},
		{game.DieType(""), 0, false},
	}
	for _, tc := range tests {
		sides, ok := Sides(tc.dt)
		if sides != tc.sides || ok != tc.ok {
			t.Errorf("Sides(%q) = (%d, %v), want (%d, %v)", tc.dt, sides, ok, tc.sides, tc.ok)
		}
	}
}
