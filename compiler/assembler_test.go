package compiler

import (
	"reflect"
	"testing"

	"github.com/solenne/incant/pkg/bytecode"
)

func TestCompileReadySection(t *testing.T) {
	c := testCompiler()
	prog, err := c.Compile("when_created:\ngive_velocity(1, 1, 1)")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := words(
		w(bytecode.ReadySection),
		w(bytecode.Component, bytecode.CodeGiveVelocity),
		num(1), num(1), num(1),
	)
	if got := prog.Encode(); !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
	if len(prog.Processes) != 0 || len(prog.About) != 0 {
		t.Errorf("unexpected processes %v or about %v", prog.Processes, prog.About)
	}
}

func TestCompileRepeatEvery(t *testing.T) {
	c := testCompiler()
	prog, err := c.Compile("repeat every 2:\ngive_velocity(0,0,0)")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(prog.Processes) != 1 {
		t.Fatalf("process count = %d, want 1", len(prog.Processes))
	}
	proc := prog.Processes[0]
	if proc.Frequency != 2 {
		t.Errorf("frequency = %d, want 2", proc.Frequency)
	}
	want := words(
		w(bytecode.Component, bytecode.CodeGiveVelocity),
		num(0), num(0), num(0),
	)
	if !reflect.DeepEqual(proc.Code, want) {
		t.Errorf("process code = %v, want %v", proc.Code, want)
	}
}

func TestCompileRepeatDefaultsToEveryTick(t *testing.T) {
	c := testCompiler()
	prog, err := c.Compile("repeat:\nanchor()")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(prog.Processes) != 1 || prog.Processes[0].Frequency != 1 {
		t.Fatalf("processes = %+v, want one process at frequency 1", prog.Processes)
	}
}

func TestCompileIfBlock(t *testing.T) {
	c := testCompiler()
	prog, err := c.Compile("when_created:\nif false {\ngive_velocity(1,0,0)\n}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := words(
		w(bytecode.If, bytecode.False, bytecode.EndOfScope),
		w(bytecode.Component, bytecode.CodeGiveVelocity),
		num(1), num(0), num(0),
		w(bytecode.EndOfScope),
	)
	if !reflect.DeepEqual(prog.Ready, want) {
		t.Errorf("ready = %v, want %v", prog.Ready, want)
	}
}

func TestCompileNestedIfBlocks(t *testing.T) {
	c := testCompiler()
	source := `when_created:
if true {
if moving() {
perish()
}
}
anchor()`
	prog, err := c.Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := words(
		w(bytecode.If, bytecode.True, bytecode.EndOfScope),
		w(bytecode.If, bytecode.Component, bytecode.CodeMoving, bytecode.EndOfScope),
		w(bytecode.Component, bytecode.CodePerish),
		w(bytecode.EndOfScope),
		w(bytecode.EndOfScope),
		w(bytecode.Component, bytecode.CodeAnchor),
	)
	if !reflect.DeepEqual(prog.Ready, want) {
		t.Errorf("ready = %v, want %v", prog.Ready, want)
	}
}

func TestCompileMultipleSections(t *testing.T) {
	c := testCompiler()
	source := `when_created:
anchor()

repeat every 3:
set_damage(1)

repeat:
undo_anchor()`
	prog, err := c.Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(prog.Ready) == 0 {
		t.Error("ready block is empty")
	}
	if len(prog.Processes) != 2 {
		t.Fatalf("process count = %d, want 2", len(prog.Processes))
	}
	if prog.Processes[0].Frequency != 3 || prog.Processes[1].Frequency != 1 {
		t.Errorf("frequencies = %d, %d, want 3, 1",
			prog.Processes[0].Frequency, prog.Processes[1].Frequency)
	}
}

func TestCompileLaterReadyWins(t *testing.T) {
	c := testCompiler()
	source := `when_created:
anchor()

when_created:
perish()`
	prog, err := c.Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := w(bytecode.Component, bytecode.CodePerish)
	if !reflect.DeepEqual(prog.Ready, want) {
		t.Errorf("ready = %v, want %v (later section should replace earlier)", prog.Ready, want)
	}
}

func TestCompileAboutColor(t *testing.T) {
	c := testCompiler()
	prog, err := c.Compile("about:\ncolor = [0.1, 0.5, 1]")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := words(
		w(bytecode.AttrColor),
		num(0.1), num(0.5), num(1),
	)
	if !reflect.DeepEqual(prog.About, want) {
		t.Errorf("about = %v, want %v", prog.About, want)
	}

	rgb, ok := prog.Color()
	if !ok {
		t.Fatal("Color: ok = false, want true")
	}
	if rgb != [3]float64{0.1, 0.5, 1} {
		t.Errorf("Color = %v, want [0.1 0.5 1]", rgb)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   ErrorKind
		line   int
	}{
		{"unknown section", "whenever:\nanchor()", InvalidSectionName, 1},
		{"statement before header", "anchor()", InvalidSectionName, 1},
		{"zero frequency", "repeat every 0:\nanchor()", InvalidSectionName, 1},
		{"bad frequency", "repeat every fast:\nanchor()", InvalidSectionName, 1},
		{"unclosed block", "when_created:\nif true {\nanchor()", MissingClosingBrace, 0},
		{"stray close brace", "when_created:\n}", MissingClosingBrace, 2},
		{"header inside block", "when_created:\nif true {\nrepeat:", MissingClosingBrace, 3},
		{"non-boolean condition", "when_created:\nif 1 + 2 {\nanchor()\n}", ValidationFailed, 2},
		{"unknown component", "when_created:\nfly(1)", UnknownComponent, 2},
		{"bad color arity", "about:\ncolor = [0.1, 0.5]", BadLiteral, 2},
		{"color out of range", "about:\ncolor = [0.1, 0.5, 1.5]", BadLiteral, 2},
		{"unknown attribute", "about:\nglow = [1, 1, 1]", BadLiteral, 2},
	}

	c := testCompiler()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Compile(tc.source)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			ce, ok := err.(*Error)
			if !ok {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if ce.Kind != tc.kind {
				t.Errorf("kind = %v, want %v (%s)", ce.Kind, tc.kind, ce)
			}
			if ce.Line != tc.line {
				t.Errorf("line = %d, want %d", ce.Line, tc.line)
			}
		})
	}
}

func TestCompileToWire(t *testing.T) {
	c := testCompiler()
	stream, err := c.CompileToWire("when_created:\nanchor()")
	if err != nil {
		t.Fatalf("CompileToWire: %v", err)
	}
	want := w(bytecode.ReadySection, bytecode.Component, bytecode.CodeAnchor)
	if !reflect.DeepEqual(stream, want) {
		t.Errorf("wire = %v, want %v", stream, want)
	}

	if _, err := c.CompileToWire("bogus:"); err == nil {
		t.Error("CompileToWire on a bad script: expected error, got none")
	}
}
