package compiler

import (
	"strconv"

	"github.com/solenne/incant/pkg/bytecode"
)

// Compiler turns spell source into bytecode programs. It holds only the
// immutable component signature set; a single Compiler is safe to reuse
// across scripts.
type Compiler struct {
	sigs *bytecode.Signatures
}

// New creates a compiler over the given component signatures.
func New(sigs *bytecode.Signatures) *Compiler {
	return &Compiler{sigs: sigs}
}

// Signatures returns the component set this compiler resolves against.
func (c *Compiler) Signatures() *bytecode.Signatures { return c.sigs }

// ---------------------------------------------------------------------------
// Shunting-yard expression parser: infix tokens -> RPN bytecode
// ---------------------------------------------------------------------------

// opEntry describes one operator for the precedence stack.
type opEntry struct {
	word       bytecode.Word
	precedence int
	rightAssoc bool
}

// Precedence, low to high: brackets < and/or/xor < comparisons < +- <
// */ < ^ < not. Everything is left-associative except not.
var operators = map[string]opEntry{
	"and": {bytecode.And, 1, false},
	"or":  {bytecode.Or, 1, false},
	"xor": {bytecode.Xor, 1, false},
	">":   {bytecode.GreaterThan, 2, false},
	"<":   {bytecode.LesserThan, 2, false},
	"=":   {bytecode.Equals, 2, false},
	"==":  {bytecode.Equals, 2, false},
	"+":   {bytecode.Add, 3, false},
	"-":   {bytecode.Subtract, 3, false},
	"*":   {bytecode.Multiply, 4, false},
	"/":   {bytecode.Divide, 4, false},
	"^":   {bytecode.Power, 5, false},
	"not": {bytecode.Not, 6, true},
}

// bracketMarker sits on the operator stack for an open bracket.
var bracketMarker = opEntry{precedence: 0}

// CompileExpression compiles one infix expression line into RPN
// bytecode and statically validates the result before returning it.
func (c *Compiler) CompileExpression(line string) ([]bytecode.Word, error) {
	tokens, err := LexExpression(line)
	if err != nil {
		return nil, err
	}

	var out []bytecode.Word
	var ops []opEntry

	flushTo := func(entry opEntry) {
		// A bracket marker has precedence 0, below every operator, so it
		// is never popped on precedence grounds.
		for len(ops) > 0 {
			top := ops[len(ops)-1]
			if top.precedence > entry.precedence ||
				(top.precedence == entry.precedence && !entry.rightAssoc) {
				out = append(out, top.word)
				ops = ops[:len(ops)-1]
				continue
			}
			break
		}
	}

	for _, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			f, err := strconv.ParseFloat(tok.Text, 64)
			if err != nil {
				return nil, errf(BadLiteral, "%q is not a number", tok.Text)
			}
			out = append(out, bytecode.NumberLiteral, bytecode.FloatWord(f))

		case TokenBoolean:
			if tok.Text == "true" {
				out = append(out, bytecode.True)
			} else {
				out = append(out, bytecode.False)
			}

		case TokenComponent:
			words, err := c.CompileCall(tok.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, words...)

		case TokenOpcode:
			entry, ok := operators[tok.Text]
			if !ok {
				return nil, errf(BadLiteral, "unknown operator %q", tok.Text)
			}
			flushTo(entry)
			ops = append(ops, entry)

		case TokenOpenBracket:
			ops = append(ops, bracketMarker)

		case TokenCloseBracket:
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.precedence == 0 {
					matched = true
					break
				}
				out = append(out, top.word)
			}
			if !matched {
				return nil, errf(UnbalancedBrackets, "close bracket without a matching open bracket")
			}
		}
	}

	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.precedence == 0 {
			return nil, errf(UnbalancedBrackets, "open bracket is never closed")
		}
		out = append(out, top.word)
	}

	if err := c.validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
