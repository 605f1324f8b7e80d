package vm

import (
	"errors"
	"fmt"
)

// ErrInsufficientEnergy is returned when a cast would cost more than
// the spell's remaining balance. It aborts the current block only; the
// caller decides the entity's fate. The failing cast leaves energy and
// efficiency untouched.
var ErrInsufficientEnergy = errors.New("insufficient energy")

// PermissionError is returned when a nested component's live return
// value falls outside its catalogue allow-spec. Energy already spent by
// the inner call is not refunded.
type PermissionError struct {
	Reason string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return "permission denied: " + e.Reason
}

// InternalError indicates malformed bytecode: a stack underflow, an
// unexpected opcode, or a type fault. On a validated program these are
// unreachable, so an InternalError is a compiler or validator bug - an
// unrecoverable fault to log and abort on, never a business failure
// like energy or permission.
type InternalError struct {
	Msg string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return "malformed bytecode: " + e.Msg
}

func internalf(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// IsBusiness reports whether err is one of the two expected runtime
// outcomes - insufficient energy or a permission denial - rather than
// an internal fault.
func IsBusiness(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrInsufficientEnergy) || errors.As(err, &pe)
}
