package vm

import (
	"errors"
	"math"
	"testing"

	"github.com/solenne/incant/compiler"
	"github.com/solenne/incant/pkg/bytecode"
)

func compile(t *testing.T, source string) *bytecode.Program {
	t.Helper()
	prog, err := compiler.New(bytecode.StandardSignatures()).Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return prog
}

func newVM(t *testing.T, source string, energy float64, opts Options) (*VM, *Spell) {
	t.Helper()
	sp := NewSpell(energy)
	v, err := New(StandardRegistry(), sp, compile(t, source), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v, sp
}

func TestRunReadyFalseConditionCastsNothing(t *testing.T) {
	var casts int
	v, sp := newVM(t, "when_created:\nif false {\ngive_velocity(1,0,0)\n}", 50, Options{
		Observer: func(code bytecode.Word, delta float64) { casts++ },
	})

	if err := v.RunReady(); err != nil {
		t.Fatalf("RunReady: %v", err)
	}
	if casts != 0 {
		t.Errorf("casts = %d, want 0", casts)
	}
	if sp.Energy != 50 {
		t.Errorf("energy = %g, want 50 (untouched)", sp.Energy)
	}
	if sp.Moving() {
		t.Error("spell is moving after a skipped body")
	}
}

func TestRunReadySkipLandsOnNextInstruction(t *testing.T) {
	// The skipped body must not swallow the set_damage after the block.
	source := `when_created:
if false {
if true {
give_velocity(1,0,0)
}
}
set_damage(2)`
	v, sp := newVM(t, source, 1000, Options{})

	if err := v.RunReady(); err != nil {
		t.Fatalf("RunReady: %v", err)
	}
	if sp.Moving() {
		t.Error("spell is moving after a skipped body")
	}
	if sp.Damage != 2 {
		t.Errorf("damage = %g, want 2", sp.Damage)
	}
}

func TestRunReadyTrueConditionRunsBody(t *testing.T) {
	v, sp := newVM(t, "when_created:\nif true {\nset_damage(3)\n}", 1000, Options{})
	if err := v.RunReady(); err != nil {
		t.Fatalf("RunReady: %v", err)
	}
	if sp.Damage != 3 {
		t.Errorf("damage = %g, want 3", sp.Damage)
	}
}

func TestRunReadyConditionCastsForReal(t *testing.T) {
	// A moving() check inside a condition is itself a cast, observed
	// like any other.
	var observed []bytecode.Word
	v, sp := newVM(t, "when_created:\nif moving() {\nset_damage(1)\n}", 1000, Options{
		Observer: func(code bytecode.Word, delta float64) { observed = append(observed, code) },
	})
	sp.Velocity = [3]float64{1, 0, 0}

	if err := v.RunReady(); err != nil {
		t.Fatalf("RunReady: %v", err)
	}
	if sp.Damage != 1 {
		t.Errorf("damage = %g, want 1 (condition was true)", sp.Damage)
	}
	if len(observed) != 2 || observed[0] != bytecode.CodeMoving || observed[1] != bytecode.CodeSetDamage {
		t.Errorf("observed casts = %v, want [moving set_damage]", observed)
	}
}

func TestEconomyNeededEnergyDecreases(t *testing.T) {
	// set_damage has a constant base of 1.0: needed = base/(L/(L+K))
	// with the level growing by base per cast, so each cast is strictly
	// cheaper and never cheaper than base itself.
	v, sp := newVM(t, "when_created:\nset_damage(1)", 1e6, Options{})

	const base = setDamageCost
	prevNeeded := 0.0
	for i := 0; i < 20; i++ {
		before := sp.Energy
		if err := v.RunReady(); err != nil {
			t.Fatalf("cast %d: %v", i, err)
		}
		needed := before - sp.Energy

		if i == 0 {
			want := base / (1.0 / (1.0 + EfficiencyK))
			if math.Abs(needed-want) > 1e-6 {
				t.Fatalf("first cast needed = %g, want %g", needed, want)
			}
		} else if needed >= prevNeeded {
			t.Fatalf("cast %d: needed = %g, not below previous %g", i, needed, prevNeeded)
		}
		if needed < base {
			t.Fatalf("cast %d: needed = %g, below base %g", i, needed, base)
		}
		prevNeeded = needed
	}

	if lvl := sp.EfficiencyLevel(bytecode.CodeSetDamage); lvl != 1.0+20*base {
		t.Errorf("level = %g, want %g", lvl, 1.0+20*base)
	}
}

func TestInsufficientEnergyLeavesStateUntouched(t *testing.T) {
	// First cast of set_damage needs 101 energy at level 1.0.
	v, sp := newVM(t, "when_created:\nset_damage(5)", 50, Options{})

	err := v.RunReady()
	if !errors.Is(err, ErrInsufficientEnergy) {
		t.Fatalf("error = %v, want ErrInsufficientEnergy", err)
	}
	if sp.Energy != 50 {
		t.Errorf("energy = %g, want 50 (unchanged)", sp.Energy)
	}
	if lvl := sp.EfficiencyLevel(bytecode.CodeSetDamage); lvl != 1.0 {
		t.Errorf("level = %g, want 1.0 (unchanged)", lvl)
	}
	if sp.Damage != 0 {
		t.Errorf("damage = %g, want 0 (effect not applied)", sp.Damage)
	}
}

func TestInsufficientEnergyAbortsRestOfBlock(t *testing.T) {
	source := `when_created:
set_damage(5)
anchor()`
	v, sp := newVM(t, source, 50, Options{})

	if err := v.RunReady(); !errors.Is(err, ErrInsufficientEnergy) {
		t.Fatalf("error = %v, want ErrInsufficientEnergy", err)
	}
	if sp.Anchored {
		t.Error("anchor ran after the block was aborted")
	}
}

func TestRunProcessTickFrequency(t *testing.T) {
	var casts int
	v, sp := newVM(t, "repeat every 2:\nset_damage(1)", 1e6, Options{
		Observer: func(code bytecode.Word, delta float64) { casts++ },
	})

	for tick := uint64(1); tick <= 7; tick++ {
		if err := v.RunProcessTick(tick); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
	}
	if casts != 3 { // ticks 2, 4, 6
		t.Errorf("casts = %d, want 3", casts)
	}
	if sp.Ticks != 7 {
		t.Errorf("spell ticks = %d, want 7", sp.Ticks)
	}
}

func TestRunProcessTickRunsEveryProcessDue(t *testing.T) {
	source := `repeat:
set_damage(1)

repeat every 3:
anchor()`
	var casts []bytecode.Word
	v, _ := newVM(t, source, 1e6, Options{
		Observer: func(code bytecode.Word, delta float64) { casts = append(casts, code) },
	})

	if err := v.RunProcessTick(3); err != nil {
		t.Fatalf("RunProcessTick: %v", err)
	}
	want := []bytecode.Word{bytecode.CodeSetDamage, bytecode.CodeAnchor}
	if len(casts) != 2 || casts[0] != want[0] || casts[1] != want[1] {
		t.Errorf("casts = %v, want %v", casts, want)
	}
}

func TestNestedParameterCastsInnerFirst(t *testing.T) {
	// set_damage(get_time()): the inner get_time is cast (free) and its
	// live value becomes the damage.
	v, sp := newVM(t, "when_created:\nset_damage(get_time())", 1e6, Options{})
	sp.Ticks = 120 // two seconds at the default tick rate

	if err := v.RunReady(); err != nil {
		t.Fatalf("RunReady: %v", err)
	}
	if want := 120 * DefaultTickDelta; sp.Damage != want {
		t.Errorf("damage = %g, want %g", sp.Damage, want)
	}
}

func TestNestedReturnPermissionDenied(t *testing.T) {
	// The catalogue only allows damage in [5, 10]; get_time() at spawn
	// resolves to 0, so the outer cast is denied at cast time.
	cat := bytecode.Catalogue{
		bytecode.CodeSetDamage: {bytecode.ParamAllows{bytecode.Range(5, 10)}},
		bytecode.CodeGetTime:   nil,
	}
	var casts int
	v, sp := newVM(t, "when_created:\nset_damage(get_time())", 1e6, Options{
		Catalogue:    cat,
		CheckReturns: true,
		Observer:     func(code bytecode.Word, delta float64) { casts++ },
	})

	err := v.RunReady()
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *PermissionError", err)
	}
	if sp.Damage != 0 {
		t.Errorf("damage = %g, want 0 (outer effect not applied)", sp.Damage)
	}
	if casts != 1 {
		t.Errorf("casts = %d, want 1 (the inner get_time still cast)", casts)
	}
}

func TestNestedPermissionDeniedDoesNotRefund(t *testing.T) {
	// A costly inner cast keeps its spent energy and its raised level
	// even when the outer parameter check then rejects its value.
	sigs := bytecode.NewSignatures([]bytecode.Signature{
		{Name: "emit", Code: 5000, Returns: bytecode.ReturnsFloat},
		{Name: "sink", Code: 5001, Params: []bytecode.ParamType{bytecode.ParamFloat}, Returns: bytecode.ReturnsNone},
	})
	reg, err := NewRegistry(sigs, map[string]ComponentFunc{
		"emit": func(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
			if !commit {
				return bytecode.NoneValue(), 2.0, nil
			}
			return bytecode.FloatValue(7), 0, nil
		},
		"sink": func(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error) {
			return bytecode.NoneValue(), 1.0, nil
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cat := bytecode.Catalogue{
		5000: nil,
		5001: {bytecode.ParamAllows{bytecode.Range(0, 5)}}, // emit returns 7
	}
	sp := NewSpell(1000)
	prog := &bytecode.Program{Ready: []bytecode.Word{
		bytecode.Component, 5001, bytecode.Component, 5000,
	}}
	v, err := New(reg, sp, prog, Options{Catalogue: cat, CheckReturns: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runErr := v.RunReady()
	var pe *PermissionError
	if !errors.As(runErr, &pe) {
		t.Fatalf("error = %v, want *PermissionError", runErr)
	}

	// emit's cast at level 1.0: needed = 2.0 / (1/(1+K)).
	spent := 2.0 / (1.0 / (1.0 + EfficiencyK))
	if sp.Energy != 1000-spent {
		t.Errorf("energy = %g, want %g (inner cast not refunded)", sp.Energy, 1000-spent)
	}
	if lvl := sp.EfficiencyLevel(5000); lvl != 3.0 {
		t.Errorf("emit level = %g, want 3.0", lvl)
	}
	if lvl := sp.EfficiencyLevel(5001); lvl != 1.0 {
		t.Errorf("sink level = %g, want 1.0 (outer never cast)", lvl)
	}
}

func TestNewAppliesProgramColor(t *testing.T) {
	source := `about:
color = [0.25, 0.5, 0.75]`
	_, sp := newVM(t, source, 10, Options{})
	if sp.Color != [3]float64{0.25, 0.5, 0.75} {
		t.Errorf("color = %v, want [0.25 0.5 0.75]", sp.Color)
	}
}

func TestNewRejectsMalformedBlocks(t *testing.T) {
	prog := &bytecode.Program{Ready: []bytecode.Word{bytecode.If, bytecode.True, bytecode.EndOfScope}}
	_, err := New(StandardRegistry(), NewSpell(10), prog, Options{})
	if err == nil {
		t.Fatal("expected error for an unterminated IF body, got none")
	}
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Errorf("error = %T, want *InternalError", err)
	}
}

func TestExecRejectsStrayWords(t *testing.T) {
	prog := &bytecode.Program{Ready: []bytecode.Word{bytecode.Add}}
	v, err := New(StandardRegistry(), NewSpell(10), prog, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runErr := v.RunReady()
	var ie *InternalError
	if !errors.As(runErr, &ie) {
		t.Fatalf("error = %v, want *InternalError", runErr)
	}
	if IsBusiness(runErr) {
		t.Error("IsBusiness = true for an internal fault")
	}
}

func TestIsBusiness(t *testing.T) {
	if !IsBusiness(ErrInsufficientEnergy) {
		t.Error("IsBusiness(ErrInsufficientEnergy) = false")
	}
	if !IsBusiness(&PermissionError{Reason: "x"}) {
		t.Error("IsBusiness(PermissionError) = false")
	}
	if IsBusiness(&InternalError{Msg: "x"}) {
		t.Error("IsBusiness(InternalError) = true")
	}
	if IsBusiness(nil) {
		t.Error("IsBusiness(nil) = true")
	}
}
