package bytecode

import (
	"reflect"
	"testing"
)

func TestSkipBodySimple(t *testing.T) {
	code := []Word{Component, CodeAnchor, EndOfScope, Component, CodePerish}
	end, err := SkipBody(code, 0)
	if err != nil {
		t.Fatalf("SkipBody: %v", err)
	}
	if end != 3 {
		t.Errorf("end = %d, want 3", end)
	}
}

func TestSkipBodyLiteralBitsAreNotMarkers(t *testing.T) {
	// The bit pattern of 0.0 is the EndOfScope word. A width-aware scan
	// must step over it as literal payload, not close the scope.
	code := []Word{NumberLiteral, FloatWord(0.0), EndOfScope}
	end, err := SkipBody(code, 0)
	if err != nil {
		t.Fatalf("SkipBody: %v", err)
	}
	if end != 3 {
		t.Errorf("end = %d, want 3", end)
	}
}

func TestSkipBodyNestedIf(t *testing.T) {
	// Body: if true { anchor() } followed by the outer close. A nested
	// IF needs two extra end markers before the skip completes.
	code := []Word{
		If, True, EndOfScope,
		Component, CodeAnchor,
		EndOfScope,
		EndOfScope,
		Component, CodePerish,
	}
	end, err := SkipBody(code, 0)
	if err != nil {
		t.Fatalf("SkipBody: %v", err)
	}
	if end != 7 {
		t.Errorf("end = %d, want 7", end)
	}
}

func TestSkipBodyDeepNesting(t *testing.T) {
	// Build if true { if true { ... { anchor() } ... } } at increasing
	// depth; the skip must land one past the final end marker each time.
	for depth := 1; depth <= 10; depth++ {
		var code []Word
		for i := 0; i < depth; i++ {
			code = append(code, If, True, EndOfScope)
		}
		code = append(code, Component, CodeAnchor)
		for i := 0; i < depth; i++ {
			code = append(code, EndOfScope)
		}
		code = append(code, EndOfScope) // outer body close
		code = append(code, Component, CodePerish)

		end, err := SkipBody(code, 0)
		if err != nil {
			t.Fatalf("depth %d: SkipBody: %v", depth, err)
		}
		want := len(code) - 2
		if end != want {
			t.Errorf("depth %d: end = %d, want %d", depth, end, want)
		}
	}
}

func TestSkipBodyUnterminated(t *testing.T) {
	code := []Word{If, True, EndOfScope, Component, CodeAnchor}
	if _, err := SkipBody(code, 0); err == nil {
		t.Error("expected error for unterminated scope, got none")
	}
}

func TestConditionEnd(t *testing.T) {
	code := []Word{True, False, And, EndOfScope, Component, CodeAnchor}
	end, err := ConditionEnd(code, 0)
	if err != nil {
		t.Fatalf("ConditionEnd: %v", err)
	}
	if end != 3 {
		t.Errorf("end = %d, want 3", end)
	}
}

func TestConditionEndSkipsLiteralWidths(t *testing.T) {
	code := []Word{NumberLiteral, FloatWord(0.0), NumberLiteral, FloatWord(1.0), GreaterThan, EndOfScope}
	end, err := ConditionEnd(code, 0)
	if err != nil {
		t.Fatalf("ConditionEnd: %v", err)
	}
	if end != 5 {
		t.Errorf("end = %d, want 5", end)
	}
}

func TestConditionEndRejectsIf(t *testing.T) {
	code := []Word{True, If, EndOfScope}
	if _, err := ConditionEnd(code, 0); err == nil {
		t.Error("expected error for IF inside a condition, got none")
	}
}

func TestAnalyzeJumps(t *testing.T) {
	// when_created: if false { give_velocity(1,0,0) }
	code := []Word{
		If, False, EndOfScope,
		Component, CodeGiveVelocity,
		NumberLiteral, FloatWord(1),
		NumberLiteral, FloatWord(0),
		NumberLiteral, FloatWord(0),
		EndOfScope,
	}
	jumps, err := AnalyzeJumps(code)
	if err != nil {
		t.Fatalf("AnalyzeJumps: %v", err)
	}
	want := map[int]Jump{0: {CondEnd: 2, BodyEnd: 12}}
	if !reflect.DeepEqual(jumps, want) {
		t.Errorf("jumps = %v, want %v", jumps, want)
	}
}

func TestAnalyzeJumpsNested(t *testing.T) {
	// if true { if false { anchor() } } perish()
	code := []Word{
		If, True, EndOfScope, // 0..2
		If, False, EndOfScope, // 3..5
		Component, CodeAnchor, // 6..7
		EndOfScope, // 8 closes inner body
		EndOfScope, // 9 closes outer body
		Component, CodePerish,
	}
	jumps, err := AnalyzeJumps(code)
	if err != nil {
		t.Fatalf("AnalyzeJumps: %v", err)
	}
	want := map[int]Jump{
		0: {CondEnd: 2, BodyEnd: 10},
		3: {CondEnd: 5, BodyEnd: 9},
	}
	if !reflect.DeepEqual(jumps, want) {
		t.Errorf("jumps = %v, want %v", jumps, want)
	}
}

func TestAnalyzeJumpsMalformed(t *testing.T) {
	code := []Word{If, True, EndOfScope, Component, CodeAnchor}
	if _, err := AnalyzeJumps(code); err == nil {
		t.Error("expected error for unterminated body, got none")
	}
}
