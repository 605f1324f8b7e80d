package compiler

import (
	"strconv"
	"strings"

	"github.com/solenne/incant/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Component-call compiler: name(arg, arg, ...) -> typed bytecode
// ---------------------------------------------------------------------------

// CompileCall compiles a single component call into bytecode: the
// Component word, the component code, then one encoding per parameter.
// Arguments that end in a close bracket are nested calls and compile
// recursively regardless of the declared parameter type; that type is
// only enforced against the nested call's live return value at cast
// time. Everything else must parse as the declared primitive.
func (c *Compiler) CompileCall(call string) ([]bytecode.Word, error) {
	name, args, err := splitCall(call)
	if err != nil {
		return nil, err
	}

	sig, ok := c.sigs.ByName(name)
	if !ok {
		return nil, errf(UnknownComponent, "no component named %q", name)
	}
	if len(args) != sig.Arity() {
		return nil, errf(ArityMismatch, "%s takes %d parameter(s), got %d", name, sig.Arity(), len(args))
	}

	words := []bytecode.Word{bytecode.Component, sig.Code}
	for i, arg := range args {
		if strings.HasSuffix(arg, ")") {
			nested, err := c.CompileCall(arg)
			if err != nil {
				return nil, err
			}
			words = append(words, nested...)
			continue
		}

		switch sig.Params[i] {
		case bytecode.ParamFloat:
			f, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, errf(BadLiteral, "parameter %d of %s: %q is not a number", i, name, arg)
			}
			words = append(words, bytecode.NumberLiteral, bytecode.FloatWord(f))
		case bytecode.ParamBoolean:
			switch arg {
			case "true":
				words = append(words, bytecode.True)
			case "false":
				words = append(words, bytecode.False)
			default:
				return nil, errf(BadLiteral, "parameter %d of %s: %q is not a boolean", i, name, arg)
			}
		}
	}
	return words, nil
}

// splitCall breaks "name(a, b(c), d)" into the name and its top-level
// arguments. The name must be letters or underscores.
func splitCall(call string) (string, []string, error) {
	call = strings.TrimSpace(call)

	open := strings.IndexByte(call, '(')
	if open < 0 {
		return "", nil, errf(BadLiteral, "component call %q has no opening bracket", call)
	}
	if !strings.HasSuffix(call, ")") {
		return "", nil, errf(UnbalancedBrackets, "component call %q does not end with a close bracket", call)
	}

	name := call[:open]
	if name == "" {
		return "", nil, errf(BadLiteral, "component call %q has no name", call)
	}
	for i := 0; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return "", nil, errf(BadLiteral, "component name %q must be letters or underscores", name)
		}
	}

	inner := call[open+1 : len(call)-1]
	args, err := splitArgs(inner)
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// splitArgs splits a parameter list on top-level commas, leaving nested
// calls intact.
func splitArgs(inner string) ([]string, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}

	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errf(UnbalancedBrackets, "unbalanced brackets in parameter list %q", inner)
			}
		case ',':
			if depth == 0 {
				arg := strings.TrimSpace(inner[start:i])
				if arg == "" {
					return nil, errf(BadLiteral, "empty parameter in list %q", inner)
				}
				args = append(args, arg)
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errf(UnbalancedBrackets, "unbalanced brackets in parameter list %q", inner)
	}

	last := strings.TrimSpace(inner[start:])
	if last == "" {
		return nil, errf(BadLiteral, "empty parameter in list %q", inner)
	}
	args = append(args, last)
	return args, nil
}
