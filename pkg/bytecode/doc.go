// Package bytecode defines the compiled form of a spell: the 64-bit
// word instruction set, the structured Program (ready / process / about
// sections), the component signature registry, the shared RPN stack
// evaluator, the opcode-aware skip scanners, the permission Catalogue,
// and the JSON/CBOR wire formats.
//
// The package is deliberately free of any runtime state. Everything here
// is immutable after construction and safe to share by reference across
// any number of spell entities; the live half of the system (spell
// state, component implementations, the interpreter) lives in the vm
// package, and the text-to-bytecode half in the compiler package.
package bytecode
