package bytecode

import (
	"fmt"
	"math"
)

// ValueKind tags an expression value.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueFloat
	ValueBoolean
)

// String returns a human-readable name for a ValueKind.
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueFloat:
		return "float"
	case ValueBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is one slot on the expression evaluation stack.
type Value struct {
	Kind ValueKind
	F    float64
	B    bool
}

// FloatValue wraps a float64.
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, F: f} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: ValueBoolean, B: b} }

// NoneValue is the absence of a value, returned by components that
// cannot be used inside an expression.
func NoneValue() Value { return Value{Kind: ValueNone} }

// Resolver produces the value of a Component word encountered during
// expression evaluation. The reader is positioned just after the
// component code; the resolver must consume the component's parameter
// encodings.
//
// There are exactly two resolvers: the compiler's placeholder resolver
// (static validation) and the VM's live resolver (real casts). Both feed
// the one evaluator below, so mock and live evaluation cannot drift.
type Resolver interface {
	Resolve(r *Reader, code Word) (Value, error)
}

// EvalExpr evaluates an RPN word stream against a stack machine, reading
// until the terminating EndOfScope (consumed) or the end of the stream.
// The expression must leave exactly one value, which is returned.
//
// Errors from the resolver are propagated unwrapped so that the caller
// can distinguish business failures from malformed bytecode.
func EvalExpr(r *Reader, res Resolver) (Value, error) {
	var stack []Value

	pop := func() (Value, bool) {
		if len(stack) == 0 {
			return Value{}, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	pop2 := func(op Word) (a, b Value, err error) {
		b, ok := pop()
		if !ok {
			return a, b, fmt.Errorf("bytecode: stack underflow on %s", op)
		}
		a, ok = pop()
		if !ok {
			return a, b, fmt.Errorf("bytecode: stack underflow on %s", op)
		}
		return a, b, nil
	}

	popFloats := func(op Word) (a, b float64, err error) {
		va, vb, err := pop2(op)
		if err != nil {
			return 0, 0, err
		}
		if va.Kind != ValueFloat || vb.Kind != ValueFloat {
			return 0, 0, fmt.Errorf("bytecode: %s requires two floats, got %s and %s", op, va.Kind, vb.Kind)
		}
		return va.F, vb.F, nil
	}

	popBools := func(op Word) (a, b bool, err error) {
		va, vb, err := pop2(op)
		if err != nil {
			return false, false, err
		}
		if va.Kind != ValueBoolean || vb.Kind != ValueBoolean {
			return false, false, fmt.Errorf("bytecode: %s requires two booleans, got %s and %s", op, va.Kind, vb.Kind)
		}
		return va.B, vb.B, nil
	}

loop:
	for !r.Done() {
		w, err := r.Next()
		if err != nil {
			return Value{}, err
		}

		switch w {
		case EndOfScope:
			break loop

		case True:
			stack = append(stack, BoolValue(true))
		case False:
			stack = append(stack, BoolValue(false))

		case NumberLiteral:
			bits, err := r.Next()
			if err != nil {
				return Value{}, fmt.Errorf("bytecode: number literal is missing its bits word: %w", err)
			}
			stack = append(stack, FloatValue(WordFloat(bits)))

		case Component:
			code, err := r.Next()
			if err != nil {
				return Value{}, fmt.Errorf("bytecode: component is missing its code word: %w", err)
			}
			v, err := res.Resolve(r, code)
			if err != nil {
				return Value{}, err
			}
			if v.Kind == ValueNone {
				return Value{}, fmt.Errorf("bytecode: component %d has no value to use in an expression", uint64(code))
			}
			stack = append(stack, v)

		case And:
			a, b, err := popBools(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, BoolValue(a && b))
		case Or:
			a, b, err := popBools(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, BoolValue(a || b))
		case Xor:
			a, b, err := popBools(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, BoolValue(a != b))
		case Not:
			v, ok := pop()
			if !ok {
				return Value{}, fmt.Errorf("bytecode: stack underflow on %s", w)
			}
			if v.Kind != ValueBoolean {
				return Value{}, fmt.Errorf("bytecode: %s requires a boolean, got %s", w, v.Kind)
			}
			stack = append(stack, BoolValue(!v.B))

		case Equals:
			a, b, err := pop2(w)
			if err != nil {
				return Value{}, err
			}
			if a.Kind != b.Kind {
				return Value{}, fmt.Errorf("bytecode: %s requires matching types, got %s and %s", w, a.Kind, b.Kind)
			}
			if a.Kind == ValueFloat {
				stack = append(stack, BoolValue(a.F == b.F))
			} else {
				stack = append(stack, BoolValue(a.B == b.B))
			}
		case GreaterThan:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, BoolValue(a > b))
		case LesserThan:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, BoolValue(a < b))

		case Add:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, FloatValue(a+b))
		case Subtract:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, FloatValue(a-b))
		case Multiply:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, FloatValue(a*b))
		case Divide:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, FloatValue(a/b))
		case Power:
			a, b, err := popFloats(w)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, FloatValue(math.Pow(a, b)))

		default:
			return Value{}, fmt.Errorf("bytecode: unexpected word %s in expression", w)
		}
	}

	if len(stack) != 1 {
		return Value{}, fmt.Errorf("bytecode: expression left %d values on the stack, want 1", len(stack))
	}
	return stack[0], nil
}

// PlaceholderResolver substitutes every component with a canonical value
// derived from its registered return tag. It is the resolution strategy
// used for static validation: Float components become 0.0, Boolean
// components become true, and None components are rejected outright.
type PlaceholderResolver struct {
	Sigs *Signatures
}

// Resolve implements Resolver.
func (p PlaceholderResolver) Resolve(r *Reader, code Word) (Value, error) {
	sig, ok := p.Sigs.ByCode(code)
	if !ok {
		return Value{}, fmt.Errorf("bytecode: unknown component code %d", uint64(code))
	}
	if err := SkipParams(r, p.Sigs, sig); err != nil {
		return Value{}, err
	}
	switch sig.Returns {
	case ReturnsFloat:
		return FloatValue(0), nil
	case ReturnsBoolean:
		return BoolValue(true), nil
	default:
		return NoneValue(), nil
	}
}

// SkipParams advances the reader past the arity-many parameter
// encodings of a component without resolving them.
func SkipParams(r *Reader, sigs *Signatures, sig *Signature) error {
	for i := 0; i < sig.Arity(); i++ {
		w, err := r.Next()
		if err != nil {
			return fmt.Errorf("bytecode: %s is missing parameter %d: %w", sig.Name, i, err)
		}
		switch w {
		case NumberLiteral:
			if _, err := r.Next(); err != nil {
				return fmt.Errorf("bytecode: truncated number literal in %s: %w", sig.Name, err)
			}
		case True, False:
			// single word
		case Component:
			code, err := r.Next()
			if err != nil {
				return fmt.Errorf("bytecode: truncated nested component in %s: %w", sig.Name, err)
			}
			nested, ok := sigs.ByCode(code)
			if !ok {
				return fmt.Errorf("bytecode: unknown component code %d", uint64(code))
			}
			if err := SkipParams(r, sigs, nested); err != nil {
				return err
			}
		default:
			return fmt.Errorf("bytecode: unexpected word %s as parameter %d of %s", w, i, sig.Name)
		}
	}
	return nil
}
