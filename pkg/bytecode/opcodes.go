package bytecode

import "fmt"

// Word is one 64-bit unit of a compiled spell program. The meaning of a
// word depends on the word that precedes it: most words are opcodes, but
// the word after NumberLiteral is a raw float64 bit pattern and the word
// after Component is a component code.
type Word uint64

// Opcodes are organized into ranges by category. The values are part of
// the wire format and must not change.
const (
	// EndOfScope closes a scope. Every If is closed by exactly two of
	// these: one for its condition, one for its body.
	EndOfScope Word = 0

	// ========================================================================
	// Values (100-199)
	// ========================================================================

	True          Word = 100 // Push boolean true
	False         Word = 101 // Push boolean false
	NumberLiteral Word = 102 // Push float: NumberLiteral <float64 bits>
	Component     Word = 103 // Invoke component: Component <code> <params...>
	Any           Word = 104 // Catalogue wildcard marker

	// ========================================================================
	// Boolean logic (200-299)
	// ========================================================================

	And Word = 200
	Or  Word = 201
	Not Word = 202
	Xor Word = 203

	// ========================================================================
	// Comparison (300-399)
	// ========================================================================

	Equals      Word = 300
	GreaterThan Word = 301
	LesserThan  Word = 302

	// ========================================================================
	// Control flow (400-499)
	// ========================================================================

	If Word = 400 // If <condition RPN> EndOfScope <body> EndOfScope

	// ========================================================================
	// Section markers (500-599)
	// ========================================================================

	ReadySection    Word = 500 // Ready block, run once at spawn
	ProcessSection  Word = 501 // ProcessSection <frequency> <body>
	MetadataSection Word = 502 // Static attributes, never executed

	// ========================================================================
	// Arithmetic (600-699)
	// ========================================================================

	Multiply Word = 600
	Divide   Word = 601
	Add      Word = 602
	Subtract Word = 603
	Power    Word = 604
)

// Attribute codes used inside a metadata section.
const (
	AttrColor Word = 700 // AttrColor <3 × NumberLiteral pairs>, each in [0,1]
)

// Component codes. Utility components occupy 0-999, logic components
// (those returning a value usable in expressions) 1000-1999, power
// components 2000+.
const (
	CodeGiveVelocity Word = 0
	CodeTakeForm     Word = 1
	CodeUndoForm     Word = 2
	CodeRechargeTo   Word = 3
	CodeAnchor       Word = 4
	CodeUndoAnchor   Word = 5
	CodePerish       Word = 6
	CodeTakeShape    Word = 7
	CodeUndoShape    Word = 8

	CodeMoving  Word = 1000
	CodeGetTime Word = 1001

	CodeSetDamage Word = 2000
)

// String returns a human-readable name for an opcode word.
func (w Word) String() string {
	switch w {
	case EndOfScope:
		return "END_OF_SCOPE"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	case NumberLiteral:
		return "NUMBER_LITERAL"
	case Component:
		return "COMPONENT"
	case Any:
		return "ANY"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case Xor:
		return "XOR"
	case Equals:
		return "EQUALS"
	case GreaterThan:
		return "GREATER_THAN"
	case LesserThan:
		return "LESSER_THAN"
	case If:
		return "IF"
	case ReadySection:
		return "READY_SECTION"
	case ProcessSection:
		return "PROCESS_SECTION"
	case MetadataSection:
		return "METADATA_SECTION"
	case Multiply:
		return "MULTIPLY"
	case Divide:
		return "DIVIDE"
	case Add:
		return "ADD"
	case Subtract:
		return "SUBTRACT"
	case Power:
		return "POWER"
	default:
		return fmt.Sprintf("Word(%d)", uint64(w))
	}
}

// IsOperator reports whether w is a boolean, comparison, or arithmetic
// operator consumed by the expression evaluator.
func (w Word) IsOperator() bool {
	switch w {
	case And, Or, Not, Xor, Equals, GreaterThan, LesserThan,
		Multiply, Divide, Add, Subtract, Power:
		return true
	}
	return false
}
