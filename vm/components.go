package vm

import (
	"fmt"
	"math"

	"github.com/solenne/incant/pkg/bytecode"
)

// Built-in component implementations. Cost formulas follow the economy
// model: the dry run returns base energy, the VM divides by the spell's
// efficiency and deducts before the commit call runs.

// Flat base costs for the small structural components.
const (
	anchorCost    = 0.5
	undoCost      = 0.1
	takeShapeCost = 1.0
	setDamageCost = 1.0
)

// rechargeOverhead is the fraction of the refilled deficit charged as
// the cast's own cost.
const rechargeOverhead = 0.1

func standardComponents() map[string]ComponentFunc {
	return map[string]ComponentFunc{
		"give_velocity": giveVelocity,
		"take_form":     takeForm,
		"undo_form":     undoForm,
		"recharge_to":   rechargeTo,
		"anchor":        anchorSpell,
		"undo_anchor":   undoAnchor,
		"perish":        perish,
		"take_shape":    takeShape,
		"undo_shape":    undoShape,
		"moving":        moving,
		"get_time":      getTime,
		"set_damage":    setDamage,
	}
}

// giveVelocity adds (x, y, z) to the spell's velocity. Moving a spell
// costs a tenth of its stored energy per unit of speed imparted.
func giveVelocity(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	x, y, z := args[0].F, args[1].F, args[2].F
	if !commit {
		return bytecode.NoneValue(), s.Energy / 10.0 * math.Sqrt(x*x+y*y+z*z), nil
	}
	s.Velocity[0] += x
	s.Velocity[1] += y
	s.Velocity[2] += z
	return bytecode.NoneValue(), 0, nil
}

// takeForm assumes the configured form; the base cost comes from the
// manifest's energy-required figure for that form.
func takeForm(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	id := uint64(args[0].F)
	form, ok := s.Forms[id]
	if !ok {
		return bytecode.NoneValue(), 0, &PermissionError{
			Reason: fmt.Sprintf("form %d is not configured", id),
		}
	}
	if !commit {
		return bytecode.NoneValue(), form.EnergyRequired, nil
	}
	s.Form = id
	s.HasForm = true
	return bytecode.NoneValue(), 0, nil
}

func undoForm(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), undoCost, nil
	}
	s.HasForm = false
	s.Form = 0
	return bytecode.NoneValue(), 0, nil
}

// rechargeTo refills the balance toward the target level, drawing from
// the ambient field. The cast itself costs a fraction of the deficit.
func rechargeTo(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	target := args[0].F
	deficit := target - s.Energy
	if deficit < 0 {
		deficit = 0
	}
	if !commit {
		return bytecode.NoneValue(), deficit * rechargeOverhead, nil
	}
	if s.Energy < target {
		s.Energy = target
	}
	return bytecode.NoneValue(), 0, nil
}

func anchorSpell(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), anchorCost, nil
	}
	s.Anchored = true
	s.Velocity = [3]float64{}
	return bytecode.NoneValue(), 0, nil
}

func undoAnchor(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), undoCost, nil
	}
	s.Anchored = false
	return bytecode.NoneValue(), 0, nil
}

// perish ends the spell: energy drops to zero and the entity is marked
// dead for the engine to reap. Dying is free.
func perish(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), 0, nil
	}
	s.Dead = true
	s.Energy = 0
	return bytecode.NoneValue(), 0, nil
}

func takeShape(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	var kind ShapeKind
	switch uint64(args[0].F) {
	case 0:
		kind = ShapeSphere
	case 1:
		kind = ShapeCube
	default:
		return bytecode.NoneValue(), 0, &PermissionError{
			Reason: fmt.Sprintf("shape %g is not recognised", args[0].F),
		}
	}
	if !commit {
		return bytecode.NoneValue(), takeShapeCost, nil
	}
	s.Shape = kind
	return bytecode.NoneValue(), 0, nil
}

func undoShape(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), undoCost, nil
	}
	s.Shape = ShapeNone
	return bytecode.NoneValue(), 0, nil
}

// moving reports whether the spell currently has velocity. Logic
// components cost nothing.
func moving(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), 0, nil
	}
	return bytecode.BoolValue(s.Moving()), 0, nil
}

// getTime returns seconds since the spell spawned.
func getTime(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), 0, nil
	}
	return bytecode.FloatValue(s.Age()), 0, nil
}

func setDamage(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
	if !commit {
		return bytecode.NoneValue(), setDamageCost, nil
	}
	s.Damage = args[0].F
	return bytecode.NoneValue(), 0, nil
}
