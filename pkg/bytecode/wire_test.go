package bytecode

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestProgramJSONIsFlatWordStream(t *testing.T) {
	prog := &Program{Ready: []Word{Component, CodeAnchor}}

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "[500,103,4]"
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}

	var decoded Program
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&decoded, prog) {
		t.Errorf("round trip = %+v, want %+v", &decoded, prog)
	}
}

func TestProgramJSONRejectsMalformedStream(t *testing.T) {
	var p Program
	if err := json.Unmarshal([]byte("[103,4]"), &p); err == nil {
		t.Error("expected error for a stream with no section marker, got none")
	}
	if err := json.Unmarshal([]byte(`"nope"`), &p); err == nil {
		t.Error("expected error for non-array JSON, got none")
	}
}

func TestProgramCBORRoundTrip(t *testing.T) {
	prog := &Program{
		Ready:     []Word{If, True, EndOfScope, Component, CodePerish, EndOfScope},
		Processes: []Process{{Frequency: 3, Code: []Word{Component, CodeUndoAnchor}}},
		About:     []Word{AttrColor, NumberLiteral, FloatWord(0.2), NumberLiteral, FloatWord(0.4), NumberLiteral, FloatWord(0.6)},
	}

	blob, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	decoded, err := UnmarshalProgram(blob)
	if err != nil {
		t.Fatalf("UnmarshalProgram: %v", err)
	}
	if !reflect.DeepEqual(decoded, prog) {
		t.Errorf("round trip = %+v, want %+v", decoded, prog)
	}
}

func TestProgramCBORDeterministic(t *testing.T) {
	prog := &Program{Ready: []Word{Component, CodeAnchor}}
	a, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	b, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("canonical encoding differs between runs")
	}
}

func TestUnmarshalProgramRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalProgram([]byte{0xff, 0x00, 0x12}); err == nil {
		t.Error("expected error for garbage CBOR, got none")
	}
}
