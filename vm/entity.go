package vm

import "math"

// Caster is the magical entity that charges and releases spells. The
// engine owns movement and input; this model owns the energy side:
// focus, power, control, and the damage track.

// focusLevelToFocus scales the focus level into the logistic curve.
const focusLevelToFocus = 0.05

// EnergyConsideration is the smallest charge worth casting; releases
// below it are dropped silently.
const EnergyConsideration = 1e-3

// Caster holds one entity's casting state.
type Caster struct {
	Health float64
	Shield float64

	FocusLevel float64
	MaxPower   float64
	MaxControl float64
	PowerLeft  float64 // fraction of max power still available

	charged float64
	spells  []*Spell
}

// NewCaster creates a caster with full power and the given health.
func NewCaster(health float64) *Caster {
	return &Caster{
		Health:     health,
		MaxPower:   1.0,
		MaxControl: 10.0,
		PowerLeft:  1.0,
	}
}

// Focus ranges over (0, 2) with 1 as the neutral state.
func (c *Caster) Focus() float64 {
	return 2.0 / (1.0 + math.Exp(-c.FocusLevel*focusLevelToFocus))
}

// Power is the rate at which the caster can charge energy.
func (c *Caster) Power() float64 {
	return c.MaxPower * c.Focus() * c.PowerLeft
}

// Control is how much total spell energy the caster can hold at once:
// focus-scaled capacity minus the energy of every spell still alive.
// Dead spells are pruned here.
func (c *Caster) Control() float64 {
	var held float64
	live := c.spells[:0]
	for _, sp := range c.spells {
		if sp.Dead {
			continue
		}
		held += sp.Energy
		live = append(live, sp)
	}
	c.spells = live
	return c.MaxControl*c.Focus() - held
}

// Alive reports whether the caster still stands.
func (c *Caster) Alive() bool { return c.Health > 0 }

// TakeDamage applies energy to the shield first, then health.
func (c *Caster) TakeDamage(energy float64) {
	if c.Shield >= energy {
		c.Shield -= energy
		return
	}
	remaining := energy - c.Shield
	c.Shield = 0
	if c.Health > remaining {
		c.Health -= remaining
		return
	}
	c.Health = 0
}

// Charge accumulates cast energy over delta seconds, capped at the
// caster's current control.
func (c *Caster) Charge(delta float64) {
	extra := c.Power() * delta
	if c.Control() >= c.charged+extra {
		c.charged += extra
	} else {
		c.charged = c.Control()
	}
}

// Charged returns the energy accumulated so far.
func (c *Caster) Charged() float64 { return c.charged }

// Release turns the accumulated charge into a new spell. A charge below
// the consideration level is discarded and ok is false. The released
// spell counts against the caster's control until it dies.
func (c *Caster) Release() (sp *Spell, ok bool) {
	charged := c.charged
	c.charged = 0
	if charged < EnergyConsideration {
		return nil, false
	}
	if ctl := c.Control(); ctl < charged {
		charged = ctl
	}
	if charged < EnergyConsideration {
		return nil, false
	}
	sp = NewSpell(charged)
	c.spells = append(c.spells, sp)
	return sp, true
}
