package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a program in human-readable form, one instruction
// per line with word offsets. Intended for debugging and the CLI's
// -disasm flag; the output format is not stable.
func Disassemble(p *Program, sigs *Signatures) string {
	var b strings.Builder

	if len(p.Ready) > 0 {
		b.WriteString("== ready ==\n")
		disasmBlock(&b, p.Ready, sigs)
	}
	for i, proc := range p.Processes {
		fmt.Fprintf(&b, "== process %d (every %d ticks) ==\n", i, proc.Frequency)
		disasmBlock(&b, proc.Code, sigs)
	}
	if len(p.About) > 0 {
		b.WriteString("== about ==\n")
		disasmAbout(&b, p.About)
	}
	return b.String()
}

func disasmBlock(b *strings.Builder, code []Word, sigs *Signatures) {
	r := NewReader(code)
	for !r.Done() {
		pos := r.Pos()
		w, _ := r.Next()
		switch w {
		case NumberLiteral:
			bits, err := r.Next()
			if err != nil {
				fmt.Fprintf(b, "%04d  NUMBER_LITERAL <truncated>\n", pos)
				return
			}
			fmt.Fprintf(b, "%04d  NUMBER_LITERAL %g\n", pos, WordFloat(bits))
		case Component:
			code, err := r.Next()
			if err != nil {
				fmt.Fprintf(b, "%04d  COMPONENT <truncated>\n", pos)
				return
			}
			name := fmt.Sprintf("code %d", uint64(code))
			if sig, ok := sigs.ByCode(code); ok {
				name = sig.Name
			}
			fmt.Fprintf(b, "%04d  COMPONENT %s\n", pos, name)
		default:
			fmt.Fprintf(b, "%04d  %s\n", pos, w)
		}
	}
}

func disasmAbout(b *strings.Builder, words []Word) {
	r := NewReader(words)
	for !r.Done() {
		pos := r.Pos()
		w, _ := r.Next()
		switch w {
		case AttrColor:
			fmt.Fprintf(b, "%04d  COLOR\n", pos)
		case NumberLiteral:
			bits, err := r.Next()
			if err != nil {
				return
			}
			fmt.Fprintf(b, "%04d  NUMBER_LITERAL %g\n", pos, WordFloat(bits))
		default:
			fmt.Fprintf(b, "%04d  %s\n", pos, w)
		}
	}
}
