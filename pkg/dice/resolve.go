package dice

import (
	"sort"

	"github.com/backroomlabs/backroom-engine/pkg/game"
)

// Sides maps a die type to its side count. Unknown types report false.
func Sides(dt game.DieType) (int, bool) {
	switch dt {
	case game.DieD6:
		return 6, true
	case game.DieD20:
		return 20, true
	case game.DieD100:
		return 100, true
	}
	return 0, false
}

// ResolveEvent rolls the die named by the logic event and matches the
// result against its outcomes. Outcomes are scanned in ascending
// range-min order and the first inclusive match wins. A roll that
// lands in a gap between authored ranges returns a nil outcome: the
// roll is still reported, but no mechanical effect applies. That is
// intentional; not every roll needs a scripted consequence.
//
// Unknown die types fall back to a d20.
func ResolveEvent(src Source, ev *game.LogicEvent) (game.DiceRoll, *game.EventOutcome) {
	dieType := ev.DieType
	sides, ok := Sides(dieType)
	if !ok {
		dieType = game.DieD20
		sides = 20
	}

	result := src.Roll(sides, 0, false, false)
	roll := game.DiceRoll{
		Type:   dieType,
		Result: result,
		Reason: ev.Name,
	}

	outcomes := make([]game.EventOutcome, len(ev.Outcomes))
	copy(outcomes, ev.Outcomes)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return rangeMin(outcomes[i]) < rangeMin(outcomes[j])
	})

	for i := range outcomes {
		if outcomes[i].Contains(result) {
			return roll, &outcomes[i]
		}
	}
	return roll, nil
}

func rangeMin(o game.EventOutcome) int {
	if len(o.Range) == 0 {
		return 0
	}
	return o.Range[0]
}
