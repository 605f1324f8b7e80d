package compiler

import "fmt"

// TokenType classifies one expression token.
type TokenType uint8

const (
	TokenOpcode       TokenType = iota // operator word: and, or, not, >, +, ...
	TokenNumber                        // numeric literal
	TokenBoolean                       // true / false
	TokenComponent                     // whole component call, parens included
	TokenOpenBracket                   // (
	TokenCloseBracket                  // )
)

// String returns a human-readable name for a TokenType.
func (t TokenType) String() string {
	switch t {
	case TokenOpcode:
		return "OPCODE"
	case TokenNumber:
		return "NUMBER"
	case TokenBoolean:
		return "BOOLEAN"
	case TokenComponent:
		return "COMPONENT"
	case TokenOpenBracket:
		return "OPEN_BRACKET"
	case TokenCloseBracket:
		return "CLOSE_BRACKET"
	default:
		return fmt.Sprintf("TokenType(%d)", uint8(t))
	}
}

// Token is one lexed unit of an expression line. Component tokens carry
// the raw source substring of the whole call, nested parens included.
type Token struct {
	Type TokenType
	Text string
}
