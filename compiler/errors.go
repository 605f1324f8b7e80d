package compiler

import "fmt"

// ErrorKind classifies a compile failure.
type ErrorKind uint8

const (
	InvalidSectionName ErrorKind = iota
	UnknownComponent
	ArityMismatch
	BadLiteral
	UnbalancedBrackets
	MissingClosingBrace
	ValidationFailed
)

// String returns a stable name for an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case InvalidSectionName:
		return "invalid section name"
	case UnknownComponent:
		return "unknown component"
	case ArityMismatch:
		return "arity mismatch"
	case BadLiteral:
		return "bad literal"
	case UnbalancedBrackets:
		return "unbalanced brackets"
	case MissingClosingBrace:
		return "missing closing brace"
	case ValidationFailed:
		return "validation failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is a compile-time failure. Compilation aborts on the first
// error; no partial program is ever returned.
type Error struct {
	Kind    ErrorKind
	Line    int // 1-based source line, 0 when not tied to a line
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// atLine attaches a source line to an error, preserving an existing one.
func atLine(err error, line int) error {
	if ce, ok := err.(*Error); ok && ce.Line == 0 {
		ce.Line = line
	}
	return err
}
