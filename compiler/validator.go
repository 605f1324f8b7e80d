package compiler

import (
	"github.com/solenne/incant/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Static validator: mock execution of freshly produced RPN
// ---------------------------------------------------------------------------

// validate mock-executes RPN bytecode with placeholder component
// results. It runs the same stack machine the VM uses for live
// conditions, with the placeholder resolution strategy swapped in, so a
// stack underflow or type mismatch that would be fatal at runtime is
// caught here at compile time instead. A validated expression can no
// longer fail structurally on the live path.
func (c *Compiler) validate(rpn []bytecode.Word) error {
	_, err := c.mockEval(rpn)
	if err != nil {
		return errf(ValidationFailed, "%s", err)
	}
	return nil
}

// mockEval runs the shared evaluator over RPN with placeholder
// component resolution and returns the placeholder result.
func (c *Compiler) mockEval(rpn []bytecode.Word) (bytecode.Value, error) {
	r := bytecode.NewReader(rpn)
	return bytecode.EvalExpr(r, bytecode.PlaceholderResolver{Sigs: c.sigs})
}
