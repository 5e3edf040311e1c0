// Package dice implements the probability resolver: seeded dice with
// modifiers and advantage mechanics, plus outcome matching for logic
// events proposed by the narrative generator.
package dice

import (
	"hash/fnv"
	"math/rand"
	"os"
	"sync"
	"time"
)

// Source is the minimal rolling contract. Tests substitute fixed
// implementations to make outcome matching deterministic.
type Source interface {
	Roll(sides, modifier int, advantage, disadvantage bool) int
}

// Roller rolls dice from a per-instance seeded RNG. Two rollers built
// with the same seed produce identical roll sequences.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ Source = (*Roller)(nil)

// New returns a roller seeded from host identity and the current
// nanosecond timestamp.
func New() *Roller {
	host, _ := os.Hostname()
	h := fnv.New64a()
	_, _ = h.Write([]byte(host))
	return NewWithSeed(int64(h.Sum64()) ^ time.Now().UnixNano())
}

// NewWithSeed returns a roller with an explicit seed, for reproducible
// sequences in tests and replays.
func NewWithSeed(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// Roll rolls a die with the given number of sides. Advantage draws two
// dice and keeps the max, disadvantage keeps the min; requesting both
// cancels to a single plain roll. The modifier is added afterward and
// the total is clamped to [1, sides].
func (r *Roller) Roll(sides, modifier int, advantage, disadvantage bool) int {
	if sides < 1 {
		return 1
	}
	if advantage && disadvantage {
		advantage = false
		disadvantage = false
	}

	var base int
	switch {
	case advantage:
		base = max(r.rollOnce(sides), r.rollOnce(sides))
	case disadvantage:
		base = min(r.rollOnce(sides), r.rollOnce(sides))
	default:
		base = r.rollOnce(sides)
	}

	total := base + modifier
	return max(1, min(sides, total))
}

func (r *Roller) rollOnce(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// D6 rolls a plain six-sided die.
func (r *Roller) D6() int { return r.Roll(6, 0, false, false) }

// D20 rolls a plain twenty-sided die.
func (r *Roller) D20() int { return r.Roll(20, 0, false, false) }

// D100 rolls a plain percentile die.
func (r *Roller) D100() int { return r.Roll(100, 0, false, false) }
