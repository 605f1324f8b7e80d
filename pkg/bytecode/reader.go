package bytecode

import "fmt"

// Reader is a pull iterator over an instruction word stream. The VM and
// the expression evaluator both advance a Reader word by word; every
// opcode advances it by a statically bounded number of words, which is
// what guarantees termination.
type Reader struct {
	code []Word
	pos  int
}

// NewReader creates a reader positioned at the start of code.
func NewReader(code []Word) *Reader {
	return &Reader{code: code}
}

// Pos returns the index of the next word to be read.
func (r *Reader) Pos() int { return r.pos }

// Seek repositions the reader at an absolute index.
func (r *Reader) Seek(pos int) { r.pos = pos }

// Done reports whether the stream is exhausted.
func (r *Reader) Done() bool { return r.pos >= len(r.code) }

// Next consumes and returns the next word.
func (r *Reader) Next() (Word, error) {
	if r.pos >= len(r.code) {
		return 0, fmt.Errorf("bytecode: read past end of instruction stream at %d", r.pos)
	}
	w := r.code[r.pos]
	r.pos++
	return w, nil
}
