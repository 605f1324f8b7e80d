package compiler

import "strings"

// ---------------------------------------------------------------------------
// Lexer: tokenizer for one expression line
// ---------------------------------------------------------------------------

// LexExpression turns a single expression line into tokens.
//
// Unary minus never reaches the parser: runs of minus signs collapse by
// parity, and an odd run rewrites -X as (0 - X), with the closing
// bracket deferred until the operand - a number, identifier, or balanced
// parenthesized group - completes.
func LexExpression(line string) ([]Token, error) {
	l := exprLexer{input: line}
	return l.run()
}

type exprLexer struct {
	input  string
	pos    int
	tokens []Token

	// depth counts open brackets emitted so far; pending records the
	// depths at which a minus-rewrite still owes a closing bracket.
	depth   int
	pending []int
}

func (l *exprLexer) run() ([]Token, error) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t':
			l.pos++

		case ch == '(':
			l.emit(Token{Type: TokenOpenBracket, Text: "("})
			l.depth++
			l.pos++

		case ch == ')':
			l.pos++
			l.depth--
			l.emit(Token{Type: TokenCloseBracket, Text: ")"})
			l.closePending()

		case ch == '-':
			if err := l.lexMinus(); err != nil {
				return nil, err
			}

		case ch >= '0' && ch <= '9' || ch == '.':
			if err := l.lexNumber(); err != nil {
				return nil, err
			}

		case isIdentByte(ch):
			if err := l.lexIdent(); err != nil {
				return nil, err
			}

		case ch == '=':
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
				l.emit(Token{Type: TokenOpcode, Text: "=="})
				l.pos += 2
			} else {
				l.emit(Token{Type: TokenOpcode, Text: "="})
				l.pos++
			}

		case ch == '>' || ch == '<' || ch == '+' || ch == '*' || ch == '/' || ch == '^':
			l.emit(Token{Type: TokenOpcode, Text: string(ch)})
			l.pos++

		default:
			return nil, errf(BadLiteral, "unexpected character %q in expression", ch)
		}
	}

	if len(l.pending) > 0 {
		return nil, errf(BadLiteral, "dangling minus: no operand to negate")
	}
	return l.tokens, nil
}

func (l *exprLexer) emit(t Token) {
	l.tokens = append(l.tokens, t)
}

// closePending emits the deferred closing bracket of a minus rewrite
// once its operand has completed at the recorded depth.
func (l *exprLexer) closePending() {
	for len(l.pending) > 0 && l.pending[len(l.pending)-1] == l.depth {
		l.emit(Token{Type: TokenCloseBracket, Text: ")"})
		l.depth--
		l.pending = l.pending[:len(l.pending)-1]
	}
}

// lexMinus distinguishes binary subtraction from unary negation. In an
// operand position, consecutive minus signs collapse by parity; an odd
// run opens the (0 - ...) rewrite.
func (l *exprLexer) lexMinus() error {
	if l.operandBehind() {
		l.emit(Token{Type: TokenOpcode, Text: "-"})
		l.pos++
		return nil
	}

	count := 0
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '-':
			count++
			l.pos++
		case ' ', '\t':
			l.pos++
		default:
			goto done
		}
	}
done:
	if l.pos >= len(l.input) {
		return errf(BadLiteral, "dangling minus: no operand to negate")
	}
	if count%2 == 0 {
		return nil
	}

	l.emit(Token{Type: TokenOpenBracket, Text: "("})
	l.emit(Token{Type: TokenNumber, Text: "0"})
	l.emit(Token{Type: TokenOpcode, Text: "-"})
	l.depth++
	l.pending = append(l.pending, l.depth)
	return nil
}

// operandBehind reports whether the previous token can end an operand,
// which makes a following minus binary subtraction.
func (l *exprLexer) operandBehind() bool {
	if len(l.tokens) == 0 {
		return false
	}
	switch l.tokens[len(l.tokens)-1].Type {
	case TokenNumber, TokenBoolean, TokenComponent, TokenCloseBracket:
		return true
	}
	return false
}

func (l *exprLexer) lexNumber() error {
	start := l.pos
	dots := 0
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch >= '0' && ch <= '9' {
			l.pos++
			continue
		}
		if ch == '.' {
			dots++
			if dots > 1 {
				return errf(BadLiteral, "number %q has two decimal points", l.input[start:l.pos+1])
			}
			l.pos++
			continue
		}
		break
	}
	l.emit(Token{Type: TokenNumber, Text: l.input[start:l.pos]})
	l.closePending()
	return nil
}

// lexIdent reads an identifier. An identifier immediately followed by an
// open bracket is captured whole - nested balanced parens included - as
// a component token. Bare true/false become booleans; any other bare
// identifier is an operator word.
func (l *exprLexer) lexIdent() error {
	start := l.pos
	for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
		l.pos++
	}

	if l.pos < len(l.input) && l.input[l.pos] == '(' {
		depth := 0
		for l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '(':
				depth++
			case ')':
				depth--
			}
			l.pos++
			if depth == 0 {
				l.emit(Token{Type: TokenComponent, Text: l.input[start:l.pos]})
				l.closePending()
				return nil
			}
		}
		return errf(UnbalancedBrackets, "unterminated component call %q", l.input[start:])
	}

	word := l.input[start:l.pos]
	if word == "true" || word == "false" {
		l.emit(Token{Type: TokenBoolean, Text: word})
		l.closePending()
		return nil
	}
	l.emit(Token{Type: TokenOpcode, Text: word})
	return nil
}

func isIdentByte(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

// trimmed convenience used by the assembler.
func trimmed(line string) string {
	return strings.TrimSpace(line)
}
