// Package compiler translates the spell DSL into bytecode programs.
//
// The pipeline is: the section assembler splits the script into
// when_created / repeat / about sections; each body line goes through
// the component-call compiler or, for `if` headers, the expression
// lexer and the shunting-yard parser; every produced RPN stream is then
// mock-executed by the static validator before it is accepted. A
// program that leaves Compile without an error cannot underflow or
// type-fault the runtime evaluator.
package compiler
