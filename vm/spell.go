package vm

import (
	"math"

	"github.com/google/uuid"

	"github.com/solenne/incant/manifest"
	"github.com/solenne/incant/pkg/bytecode"
)

// EfficiencyK shapes the efficiency curve: a component at level L casts
// at efficiency L/(L+K). Levels start at 1.0 and grow by the base
// energy of every successful cast, so the needed energy for a fixed
// base strictly decreases toward the base itself.
const EfficiencyK = 100.0

// Spell is the live state of one cast spell entity: its energy balance,
// its per-component efficiency map, and the fields individual
// components act on. A Spell is owned exclusively by one entity and
// mutated only by that entity's own VM invocations.
type Spell struct {
	ID uuid.UUID

	Energy   float64
	Velocity [3]float64
	Anchored bool
	Dead     bool

	Form    uint64
	HasForm bool
	Shape   ShapeKind
	Damage  float64 // contact damage fraction

	Color [3]float64

	// Forms available to this spell, keyed by form id. Loaded from the
	// manifest by the caller; nil when no forms are configured.
	Forms map[uint64]manifest.Form

	// Ticks and TickDelta drive get_time.
	Ticks     uint64
	TickDelta float64

	efficiency map[bytecode.Word]float64
}

// DefaultTickDelta is the seconds-per-tick used when the engine does
// not supply its own.
const DefaultTickDelta = 1.0 / 60.0

// NewSpell creates a spell with the given energy balance.
func NewSpell(energy float64) *Spell {
	return &Spell{
		ID:         uuid.New(),
		Energy:     energy,
		TickDelta:  DefaultTickDelta,
		efficiency: make(map[bytecode.Word]float64),
	}
}

// EfficiencyLevel returns the accumulated level for a component,
// starting at 1.0 for components never cast.
func (s *Spell) EfficiencyLevel(code bytecode.Word) float64 {
	if lvl, ok := s.efficiency[code]; ok {
		return lvl
	}
	return 1.0
}

// Efficiency returns the effective efficiency for a component,
// level/(level+K), in (0, 1).
func (s *Spell) Efficiency(code bytecode.Word) float64 {
	lvl := s.EfficiencyLevel(code)
	return lvl / (lvl + EfficiencyK)
}

// raiseEfficiency adds a successful cast's base energy to the level.
// Levels only ever increase.
func (s *Spell) raiseEfficiency(code bytecode.Word, base float64) {
	s.efficiency[code] = s.EfficiencyLevel(code) + base
}

// Speed returns the magnitude of the spell's velocity.
func (s *Spell) Speed() float64 {
	v := s.Velocity
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Moving reports whether the spell has any velocity.
func (s *Spell) Moving() bool {
	return s.Speed() > 0
}

// Age returns seconds since spawn.
func (s *Spell) Age() float64 {
	return float64(s.Ticks) * s.TickDelta
}
