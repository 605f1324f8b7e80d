package compiler

import (
	"strconv"
	"strings"

	"github.com/solenne/incant/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Section assembler: whole scripts -> Program
// ---------------------------------------------------------------------------

// Compile compiles a whole spell script. Scripts are line-oriented:
// section headers end in a colon, bodies hold component calls,
// `if <expr> {` headers, and bare `}` closers. A repeat section may
// appear any number of times; a later when_created or about section
// replaces an earlier one.
//
// The first error aborts compilation; no partial program is returned.
func (c *Compiler) Compile(source string) (*bytecode.Program, error) {
	lines := strings.Split(source, "\n")

	prog := &bytecode.Program{}

	// Section currently being assembled; flushed on the next header or
	// at end of input.
	type section struct {
		kind      bytecode.Word
		frequency uint64
	}
	var current *section
	var body []bytecode.Word
	braceDepth := 0
	var aboutWords []bytecode.Word

	flush := func() {
		if current == nil {
			return
		}
		switch current.kind {
		case bytecode.ReadySection:
			prog.Ready = body
		case bytecode.ProcessSection:
			prog.Processes = append(prog.Processes, bytecode.Process{
				Frequency: current.frequency,
				Code:      body,
			})
		case bytecode.MetadataSection:
			prog.About = aboutWords
		}
		body = nil
		aboutWords = nil
	}

	for idx, raw := range lines {
		lineNo := idx + 1
		line := trimmed(raw)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") {
			if braceDepth != 0 {
				return nil, &Error{Kind: MissingClosingBrace, Line: lineNo,
					Message: "section header inside an unclosed block"}
			}
			sec, err := parseHeader(strings.TrimSuffix(line, ":"))
			if err != nil {
				return nil, atLine(err, lineNo)
			}
			flush()
			current = &section{kind: sec.kind, frequency: sec.frequency}
			continue
		}

		if current == nil {
			return nil, &Error{Kind: InvalidSectionName, Line: lineNo,
				Message: "statement before any section header"}
		}

		if current.kind == bytecode.MetadataSection {
			words, err := c.compileAttribute(line)
			if err != nil {
				return nil, atLine(err, lineNo)
			}
			aboutWords = append(aboutWords, words...)
			continue
		}

		switch {
		case line == "}":
			if braceDepth == 0 {
				return nil, &Error{Kind: MissingClosingBrace, Line: lineNo,
					Message: "close brace without an open block"}
			}
			braceDepth--
			body = append(body, bytecode.EndOfScope)

		case strings.HasPrefix(line, "if ") && strings.HasSuffix(line, "{"):
			cond := trimmed(strings.TrimSuffix(line[len("if "):], "{"))
			rpn, err := c.CompileExpression(cond)
			if err != nil {
				return nil, atLine(err, lineNo)
			}
			if v, err := c.mockEval(rpn); err == nil && v.Kind != bytecode.ValueBoolean {
				return nil, &Error{Kind: ValidationFailed, Line: lineNo,
					Message: "if condition must evaluate to a boolean"}
			}
			body = append(body, bytecode.If)
			body = append(body, rpn...)
			body = append(body, bytecode.EndOfScope)
			braceDepth++

		default:
			words, err := c.CompileCall(line)
			if err != nil {
				return nil, atLine(err, lineNo)
			}
			body = append(body, words...)
		}
	}

	if braceDepth != 0 {
		return nil, &Error{Kind: MissingClosingBrace,
			Message: strconv.Itoa(braceDepth) + " block(s) left open at end of script"}
	}
	flush()
	return prog, nil
}

// headerSpec is the parsed form of a section header line.
type headerSpec struct {
	kind      bytecode.Word
	frequency uint64
}

// parseHeader matches the exact section names: when_created, repeat,
// repeat every <uint>, about.
func parseHeader(name string) (headerSpec, error) {
	name = trimmed(name)
	switch {
	case name == "when_created":
		return headerSpec{kind: bytecode.ReadySection}, nil
	case name == "repeat":
		return headerSpec{kind: bytecode.ProcessSection, frequency: 1}, nil
	case name == "about":
		return headerSpec{kind: bytecode.MetadataSection}, nil
	case strings.HasPrefix(name, "repeat every "):
		arg := trimmed(strings.TrimPrefix(name, "repeat every "))
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || n == 0 {
			return headerSpec{}, errf(InvalidSectionName, "repeat frequency %q is not a positive integer", arg)
		}
		return headerSpec{kind: bytecode.ProcessSection, frequency: n}, nil
	default:
		return headerSpec{}, errf(InvalidSectionName, "no section named %q", name)
	}
}

// compileAttribute compiles one `key = value` line of an about section.
// The only attribute currently defined is color, a three-float list
// with every channel in [0,1].
func (c *Compiler) compileAttribute(line string) ([]bytecode.Word, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return nil, errf(BadLiteral, "attribute line %q is not of the form key = value", line)
	}
	key := trimmed(line[:eq])
	value := trimmed(line[eq+1:])

	switch key {
	case "color":
		if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
			return nil, errf(BadLiteral, "color value %q is not a [r, g, b] list", value)
		}
		parts := strings.Split(value[1:len(value)-1], ",")
		if len(parts) != 3 {
			return nil, errf(BadLiteral, "color needs exactly 3 components, got %d", len(parts))
		}
		words := []bytecode.Word{bytecode.AttrColor}
		for _, part := range parts {
			f, err := strconv.ParseFloat(trimmed(part), 64)
			if err != nil {
				return nil, errf(BadLiteral, "color component %q is not a number", trimmed(part))
			}
			if f < 0 || f > 1 {
				return nil, errf(BadLiteral, "color component %g is outside [0, 1]", f)
			}
			words = append(words, bytecode.NumberLiteral, bytecode.FloatWord(f))
		}
		return words, nil
	default:
		return nil, errf(BadLiteral, "no attribute named %q", key)
	}
}

// CompileToWire compiles a script and returns the flat word stream, the
// form editor front-ends and the engine consume. The error, when
// non-nil, carries the (message, succeeded=false) surface for UIs.
func (c *Compiler) CompileToWire(source string) ([]bytecode.Word, error) {
	prog, err := c.Compile(source)
	if err != nil {
		return nil, err
	}
	return prog.Encode(), nil
}
