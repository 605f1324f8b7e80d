package bytecode

import "fmt"

// An Allow is one allowed shape for a component parameter: an exact
// boolean, an inclusive numeric range, or a wildcard.
type Allow struct {
	Kind AllowKind
	Bool bool
	Min  float64
	Max  float64
}

// AllowKind discriminates Allow.
type AllowKind uint8

const (
	AllowAny AllowKind = iota
	AllowBool
	AllowRange
)

// Wildcard matches every value.
func Wildcard() Allow { return Allow{Kind: AllowAny} }

// ExactBool matches exactly the boolean b.
func ExactBool(b bool) Allow { return Allow{Kind: AllowBool, Bool: b} }

// Range matches any float in [min, max], boundaries included.
func Range(min, max float64) Allow { return Allow{Kind: AllowRange, Min: min, Max: max} }

// Exactly matches one float value.
func Exactly(v float64) Allow { return Range(v, v) }

// matches reports whether a single resolved value satisfies this allow.
func (a Allow) matches(v Value) bool {
	switch a.Kind {
	case AllowAny:
		return true
	case AllowBool:
		return v.Kind == ValueBoolean && v.B == a.Bool
	case AllowRange:
		return v.Kind == ValueFloat && v.F >= a.Min && v.F <= a.Max
	}
	return false
}

// ParamAllows is the allow-spec list for one parameter position; a value
// is permitted when at least one entry matches.
type ParamAllows []Allow

// Catalogue restricts which components, and which parameter values, a
// casting context may use. It maps component codes to one allow-spec
// list per parameter position. Read-only after construction and safely
// shared by reference across entities.
type Catalogue map[Word][]ParamAllows

// Permissive builds a catalogue that lists every component of the
// signature set with wildcard parameters. Useful as a training-grounds
// default and as a base to narrow down.
func Permissive(sigs *Signatures) Catalogue {
	c := make(Catalogue)
	for _, name := range sigs.Names() {
		sig, _ := sigs.ByName(name)
		specs := make([]ParamAllows, sig.Arity())
		for i := range specs {
			specs[i] = ParamAllows{Wildcard()}
		}
		c[sig.Code] = specs
	}
	return c
}

// Permits reports whether the catalogue lists the component at all.
func (c Catalogue) Permits(code Word) bool {
	_, ok := c[code]
	return ok
}

// PermitsValue reports whether a resolved value is acceptable at the
// given parameter position. Positions without an allow-spec list are
// treated as wildcards.
func (c Catalogue) PermitsValue(code Word, pos int, v Value) bool {
	specs, ok := c[code]
	if !ok {
		return false
	}
	if pos >= len(specs) {
		return true
	}
	for _, a := range specs[pos] {
		if a.matches(v) {
			return true
		}
	}
	return len(specs[pos]) == 0
}

// Check walks every Component instruction of a compiled program
// (metadata excluded) and verifies the catalogue permits it: the code
// must be listed and every literal parameter must satisfy its position's
// allow-specs. Nested-component parameters are not value-checked here;
// their returns are only knowable at cast time.
//
// It reports (allowed, reason) rather than an error: a rejection is an
// ordinary outcome, not a fault.
func (c Catalogue) Check(sigs *Signatures, p *Program) (bool, string) {
	if ok, reason := c.checkBlock(sigs, p.Ready); !ok {
		return false, reason
	}
	for _, proc := range p.Processes {
		if ok, reason := c.checkBlock(sigs, proc.Code); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (c Catalogue) checkBlock(sigs *Signatures, code []Word) (bool, string) {
	r := NewReader(code)
	for !r.Done() {
		w, err := r.Next()
		if err != nil {
			return false, err.Error()
		}
		switch w {
		case NumberLiteral:
			if _, err := r.Next(); err != nil {
				return false, err.Error()
			}
		case Component:
			if ok, reason := c.checkCall(sigs, r); !ok {
				return false, reason
			}
		}
	}
	return true, ""
}

// checkCall validates one component call, recursing into nested calls.
// The reader is positioned at the component's code word.
func (c Catalogue) checkCall(sigs *Signatures, r *Reader) (bool, string) {
	code, err := r.Next()
	if err != nil {
		return false, err.Error()
	}
	sig, ok := sigs.ByCode(code)
	if !ok {
		return false, fmt.Sprintf("unknown component code %d", uint64(code))
	}
	if !c.Permits(code) {
		return false, fmt.Sprintf("component %s is not in the catalogue", sig.Name)
	}

	for i := 0; i < sig.Arity(); i++ {
		w, err := r.Next()
		if err != nil {
			return false, err.Error()
		}
		switch w {
		case NumberLiteral:
			bits, err := r.Next()
			if err != nil {
				return false, err.Error()
			}
			v := FloatValue(WordFloat(bits))
			if !c.PermitsValue(code, i, v) {
				return false, fmt.Sprintf("parameter %d of %s: value %g is not allowed", i, sig.Name, v.F)
			}
		case True, False:
			v := BoolValue(w == True)
			if !c.PermitsValue(code, i, v) {
				return false, fmt.Sprintf("parameter %d of %s: boolean %t is not allowed", i, sig.Name, v.B)
			}
		case Component:
			// The nested call is checked on its own terms; its return
			// value is checked lazily at cast time.
			if ok, reason := c.checkCall(sigs, r); !ok {
				return false, reason
			}
		default:
			return false, fmt.Sprintf("unexpected word %s as parameter %d of %s", w, i, sig.Name)
		}
	}
	return true, ""
}
