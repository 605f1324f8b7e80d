package bytecode

import "fmt"

// This file implements the opcode-aware scanners used to step over
// variable-width instructions without executing them. NumberLiteral and
// Component are skipped by their exact word count rather than by any
// kind of bracket matching, so a raw float bit pattern can never be
// misread as an opcode.

// SkipBody scans forward from start (the first word of an If body,
// immediately after the condition's EndOfScope) and returns the index of
// the first word past the body's closing EndOfScope. A nested If inside
// the skipped body requires exactly two more EndOfScope words before the
// scan completes.
func SkipBody(code []Word, start int) (int, error) {
	needed := 1
	i := start
	for i < len(code) {
		switch code[i] {
		case EndOfScope:
			needed--
			if needed == 0 {
				return i + 1, nil
			}
			i++
		case If:
			needed += 2
			i++
		case NumberLiteral, Component:
			i += 2
		default:
			i++
		}
	}
	return 0, fmt.Errorf("bytecode: unterminated scope, %d end marker(s) missing", needed)
}

// ConditionEnd scans forward from start (the first word of an If
// condition) and returns the index of the EndOfScope that terminates the
// condition. Conditions are flat RPN and contain no If.
func ConditionEnd(code []Word, start int) (int, error) {
	i := start
	for i < len(code) {
		switch code[i] {
		case EndOfScope:
			return i, nil
		case If:
			return 0, fmt.Errorf("bytecode: IF inside a condition at %d", i)
		case NumberLiteral, Component:
			i += 2
		default:
			i++
		}
	}
	return 0, fmt.Errorf("bytecode: unterminated condition starting at %d", start)
}

// Jump is the precomputed control-flow data for one If instruction.
type Jump struct {
	CondEnd int // index of the condition's EndOfScope
	BodyEnd int // index of the first word past the body's EndOfScope
}

// AnalyzeJumps precomputes, for every If in a block, where its condition
// ends and where execution resumes when the condition is false. Running
// the scan once per program at load time means the interpreter never
// re-derives skip distances mid-execution.
func AnalyzeJumps(code []Word) (map[int]Jump, error) {
	jumps := make(map[int]Jump)
	i := 0
	for i < len(code) {
		switch code[i] {
		case If:
			condEnd, err := ConditionEnd(code, i+1)
			if err != nil {
				return nil, err
			}
			bodyEnd, err := SkipBody(code, condEnd+1)
			if err != nil {
				return nil, err
			}
			jumps[i] = Jump{CondEnd: condEnd, BodyEnd: bodyEnd}
			i = condEnd + 1 // bodies may hold nested Ifs of their own
		case NumberLiteral, Component:
			i += 2
		default:
			i++
		}
	}
	return jumps, nil
}
