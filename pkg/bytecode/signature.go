package bytecode

import "fmt"

// ParamType is the declared type of one component parameter position.
type ParamType uint8

const (
	ParamFloat ParamType = iota
	ParamBoolean
)

// String returns a human-readable name for a ParamType.
func (p ParamType) String() string {
	switch p {
	case ParamFloat:
		return "float"
	case ParamBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ParamType(%d)", uint8(p))
	}
}

// ReturnTag describes what a component yields when used inside an
// expression.
type ReturnTag uint8

const (
	ReturnsNone ReturnTag = iota
	ReturnsFloat
	ReturnsBoolean
)

// String returns a human-readable name for a ReturnTag.
func (r ReturnTag) String() string {
	switch r {
	case ReturnsNone:
		return "none"
	case ReturnsFloat:
		return "float"
	case ReturnsBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ReturnTag(%d)", uint8(r))
	}
}

// Signature is the static half of a component registration: everything
// the compiler and validators need without touching an implementation.
type Signature struct {
	Name    string
	Code    Word
	Params  []ParamType
	Returns ReturnTag
}

// Arity returns the number of parameters the component takes.
func (s *Signature) Arity() int { return len(s.Params) }

// Signatures is an immutable name/code index over a fixed component set.
// It is built once and shared by reference between the compiler, the
// validators, and the VM registry.
type Signatures struct {
	byName map[string]*Signature
	byCode map[Word]*Signature
}

// NewSignatures builds an index over the given components.
func NewSignatures(sigs []Signature) *Signatures {
	s := &Signatures{
		byName: make(map[string]*Signature, len(sigs)),
		byCode: make(map[Word]*Signature, len(sigs)),
	}
	for i := range sigs {
		sig := &sigs[i]
		s.byName[sig.Name] = sig
		s.byCode[sig.Code] = sig
	}
	return s
}

// ByName looks up a component signature by its DSL name.
func (s *Signatures) ByName(name string) (*Signature, bool) {
	sig, ok := s.byName[name]
	return sig, ok
}

// ByCode looks up a component signature by its bytecode component code.
func (s *Signatures) ByCode(code Word) (*Signature, bool) {
	sig, ok := s.byCode[code]
	return sig, ok
}

// Names returns every registered component name, in no particular order.
func (s *Signatures) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	return names
}

// StandardSignatures returns the signature set for the built-in
// component catalogue.
func StandardSignatures() *Signatures {
	return NewSignatures([]Signature{
		{Name: "give_velocity", Code: CodeGiveVelocity, Params: []ParamType{ParamFloat, ParamFloat, ParamFloat}, Returns: ReturnsNone},
		{Name: "take_form", Code: CodeTakeForm, Params: []ParamType{ParamFloat}, Returns: ReturnsNone},
		{Name: "undo_form", Code: CodeUndoForm, Returns: ReturnsNone},
		{Name: "recharge_to", Code: CodeRechargeTo, Params: []ParamType{ParamFloat}, Returns: ReturnsNone},
		{Name: "anchor", Code: CodeAnchor, Returns: ReturnsNone},
		{Name: "undo_anchor", Code: CodeUndoAnchor, Returns: ReturnsNone},
		{Name: "perish", Code: CodePerish, Returns: ReturnsNone},
		{Name: "take_shape", Code: CodeTakeShape, Params: []ParamType{ParamFloat}, Returns: ReturnsNone},
		{Name: "undo_shape", Code: CodeUndoShape, Returns: ReturnsNone},
		{Name: "moving", Code: CodeMoving, Returns: ReturnsBoolean},
		{Name: "get_time", Code: CodeGetTime, Returns: ReturnsFloat},
		{Name: "set_damage", Code: CodeSetDamage, Params: []ParamType{ParamFloat}, Returns: ReturnsNone},
	})
}
