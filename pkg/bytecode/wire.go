package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Two wire forms exist. The JSON form is the flat word stream as an
// array of numbers, used for transport to the engine and for editor
// tooling. The CBOR form (canonical mode, for deterministic encoding)
// carries the structured Program and is what the spell library stores.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalJSON encodes the program as its flat word stream.
func (p *Program) MarshalJSON() ([]byte, error) {
	words := p.Encode()
	raw := make([]uint64, len(words))
	for i, w := range words {
		raw[i] = uint64(w)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes a flat word stream back into a structured
// program.
func (p *Program) UnmarshalJSON(data []byte) error {
	var raw []uint64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("bytecode: unmarshal word stream: %w", err)
	}
	words := make([]Word, len(raw))
	for i, u := range raw {
		words[i] = Word(u)
	}
	decoded, err := Decode(words)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// MarshalProgram serializes a Program to canonical CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalProgram deserializes a Program from CBOR bytes.
func UnmarshalProgram(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	return &p, nil
}
