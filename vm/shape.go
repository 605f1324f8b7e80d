package vm

import (
	"fmt"
	"math"
)

// ShapeKind is the physical form a spell has taken, if any.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeSphere
	ShapeCube
)

// String returns a human-readable name for a ShapeKind.
func (k ShapeKind) String() string {
	switch k {
	case ShapeNone:
		return "none"
	case ShapeSphere:
		return "sphere"
	case ShapeCube:
		return "cube"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint8(k))
	}
}

// shapeUnitSize is the nominal dimension (radius or side) a freshly
// taken shape occupies.
const shapeUnitSize = 1.0

// Volume returns the volume of the shape at the nominal size.
func (k ShapeKind) Volume() float64 {
	switch k {
	case ShapeSphere:
		return 4.0 / 3.0 * math.Pi * math.Pow(shapeUnitSize, 3)
	case ShapeCube:
		return math.Pow(shapeUnitSize, 3)
	default:
		return 0
	}
}

// EnergyDensity returns the spell's energy per unit volume of its
// current shape, or 0 when it has no shape.
func (s *Spell) EnergyDensity() float64 {
	vol := s.Shape.Volume()
	if vol == 0 {
		return 0
	}
	return s.Energy / vol
}
