package vm

import (
	"fmt"

	"github.com/solenne/incant/pkg/bytecode"
)

// maxNestingDepth bounds recursion through nested component parameters,
// so adversarial input cannot grow the native stack without bound.
const maxNestingDepth = 64

// CastObserver is notified after each successful cast with the
// component code and the efficiency delta (the cast's base energy).
type CastObserver func(code bytecode.Word, delta float64)

// Options configures a VM.
type Options struct {
	// Catalogue, when non-nil, is consulted by CheckReturns.
	Catalogue bytecode.Catalogue

	// CheckReturns enables the lazy permission check of nested
	// component return values at cast time.
	CheckReturns bool

	// Observer, when non-nil, receives cast notifications.
	Observer CastObserver
}

// VM walks a compiled program against one spell's state: a
// single-threaded, synchronous, depth-first walk of the instruction
// words. A VM never suspends mid-evaluation; a component invocation
// either completes or the remaining words of the current block are
// abandoned with an error.
type VM struct {
	reg   *Registry
	spell *Spell
	prog  *bytecode.Program
	opts  Options

	// Jump targets per block, precomputed at load time so execution
	// never re-derives a skip distance.
	readyJumps map[int]bytecode.Jump
	procJumps  []map[int]bytecode.Jump
}

// New loads a program for a spell. Jump analysis runs here once; a
// malformed stream surfaces now as an InternalError instead of
// mid-flight.
func New(reg *Registry, spell *Spell, prog *bytecode.Program, opts Options) (*VM, error) {
	v := &VM{reg: reg, spell: spell, prog: prog, opts: opts}

	var err error
	if v.readyJumps, err = bytecode.AnalyzeJumps(prog.Ready); err != nil {
		return nil, internalf("%s", err)
	}
	v.procJumps = make([]map[int]bytecode.Jump, len(prog.Processes))
	for i, proc := range prog.Processes {
		if v.procJumps[i], err = bytecode.AnalyzeJumps(proc.Code); err != nil {
			return nil, internalf("%s", err)
		}
	}

	if rgb, ok := prog.Color(); ok {
		spell.Color = rgb
	}
	return v, nil
}

// Spell returns the state this VM drives.
func (v *VM) Spell() *Spell { return v.spell }

// RunReady executes the ready block. Called once at spawn.
func (v *VM) RunReady() error {
	return v.exec(v.prog.Ready, v.readyJumps)
}

// RunProcessTick advances the spell one simulation tick and executes
// every process whose frequency divides the tick number. An error
// aborts the remaining processes; the caller decides the entity's fate
// (the despawn callback is the caller's, not the VM's).
func (v *VM) RunProcessTick(tick uint64) error {
	v.spell.Ticks++
	for i, proc := range v.prog.Processes {
		if tick%proc.Frequency != 0 {
			continue
		}
		if err := v.exec(proc.Code, v.procJumps[i]); err != nil {
			return err
		}
	}
	return nil
}

// exec walks one block of instruction words.
func (v *VM) exec(code []bytecode.Word, jumps map[int]bytecode.Jump) error {
	r := bytecode.NewReader(code)
	for !r.Done() {
		pos := r.Pos()
		w, err := r.Next()
		if err != nil {
			return internalf("%s", err)
		}

		switch w {
		case bytecode.EndOfScope:
			// The end of a taken if body; nothing to do.

		case bytecode.Component:
			code, err := r.Next()
			if err != nil {
				return internalf("component is missing its code word")
			}
			if _, err := v.invoke(r, code, 0); err != nil {
				return err
			}

		case bytecode.If:
			jump, ok := jumps[pos]
			if !ok {
				return internalf("IF at %d has no precomputed jump", pos)
			}
			cond, err := bytecode.EvalExpr(r, &liveResolver{vm: v})
			if err != nil {
				if IsBusiness(err) {
					return err
				}
				return internalf("%s", err)
			}
			if cond.Kind != bytecode.ValueBoolean {
				// Unreachable on a validated program.
				return internalf("if condition evaluated to %s, want boolean", cond.Kind)
			}
			if !cond.B {
				r.Seek(jump.BodyEnd)
			}

		default:
			return internalf("unexpected word %s at top level", w)
		}
	}
	return nil
}

// liveResolver feeds real component invocations into the shared
// expression evaluator. Conditions cast for real: a moving() check is
// itself a (free) cast, and a nested give_velocity really spends.
type liveResolver struct {
	vm    *VM
	depth int
}

// Resolve implements bytecode.Resolver.
func (lr *liveResolver) Resolve(r *bytecode.Reader, code bytecode.Word) (bytecode.Value, error) {
	return lr.vm.invoke(r, code, lr.depth)
}

// invoke runs the full cast protocol for one component: parameter
// resolution, dry-run costing, the efficiency economy, then commit.
func (v *VM) invoke(r *bytecode.Reader, code bytecode.Word, depth int) (bytecode.Value, error) {
	if depth > maxNestingDepth {
		return bytecode.Value{}, internalf("component nesting deeper than %d", maxNestingDepth)
	}

	sig, fn, err := v.reg.lookup(code)
	if err != nil {
		return bytecode.Value{}, err
	}

	args := make([]bytecode.Value, 0, sig.Arity())
	for i := 0; i < sig.Arity(); i++ {
		w, err := r.Next()
		if err != nil {
			return bytecode.Value{}, internalf("%s is missing parameter %d", sig.Name, i)
		}

		var arg bytecode.Value
		switch w {
		case bytecode.NumberLiteral:
			bits, err := r.Next()
			if err != nil {
				return bytecode.Value{}, internalf("truncated number literal in %s", sig.Name)
			}
			arg = bytecode.FloatValue(bytecode.WordFloat(bits))

		case bytecode.True:
			arg = bytecode.BoolValue(true)
		case bytecode.False:
			arg = bytecode.BoolValue(false)

		case bytecode.Component:
			nested, err := r.Next()
			if err != nil {
				return bytecode.Value{}, internalf("truncated nested component in %s", sig.Name)
			}
			arg, err = v.invoke(r, nested, depth+1)
			if err != nil {
				return bytecode.Value{}, err
			}
			// Lazy permission check: the nested cast has already spent
			// its energy; a rejection here does not refund it.
			if v.opts.CheckReturns && v.opts.Catalogue != nil {
				if !v.opts.Catalogue.PermitsValue(code, i, arg) {
					return bytecode.Value{}, &PermissionError{
						Reason: permReason(sig, i, arg),
					}
				}
			}

		default:
			return bytecode.Value{}, internalf("unexpected word %s as parameter %d of %s", w, i, sig.Name)
		}

		if !typeMatches(arg, sig.Params[i]) {
			return bytecode.Value{}, internalf("parameter %d of %s: got %s, want %s",
				i, sig.Name, arg.Kind, sig.Params[i])
		}
		args = append(args, arg)
	}

	// Dry run for the base cost.
	_, base, err := fn(v.spell, args, false)
	if err != nil {
		return bytecode.Value{}, err
	}

	level := v.spell.EfficiencyLevel(code)
	needed := base / (level / (level + EfficiencyK))
	if v.spell.Energy < needed {
		return bytecode.Value{}, ErrInsufficientEnergy
	}
	v.spell.Energy -= needed
	v.spell.raiseEfficiency(code, base)
	if v.opts.Observer != nil {
		v.opts.Observer(code, base)
	}

	// Commit applies the effect and yields the expression value.
	result, _, err := fn(v.spell, args, true)
	if err != nil {
		return bytecode.Value{}, err
	}
	return result, nil
}

func typeMatches(v bytecode.Value, p bytecode.ParamType) bool {
	switch p {
	case bytecode.ParamFloat:
		return v.Kind == bytecode.ValueFloat
	case bytecode.ParamBoolean:
		return v.Kind == bytecode.ValueBoolean
	}
	return false
}

func permReason(sig *bytecode.Signature, pos int, v bytecode.Value) string {
	switch v.Kind {
	case bytecode.ValueFloat:
		return fmt.Sprintf("parameter %d of %s: resolved value %g is not allowed", pos, sig.Name, v.F)
	case bytecode.ValueBoolean:
		return fmt.Sprintf("parameter %d of %s: resolved boolean %t is not allowed", pos, sig.Name, v.B)
	default:
		return fmt.Sprintf("parameter %d of %s: resolved value is not allowed", pos, sig.Name)
	}
}
