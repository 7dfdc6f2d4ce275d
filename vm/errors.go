package vm

import "errors"

// ---------------------------------------------------------------------------
// Runtime fault types
// ---------------------------------------------------------------------------
//
// Run-time faults form a closed set, disjoint from the load-time errors in
// encoding.go. Every fault aborts the current Run call and is returned to
// the caller as a value; execution is never aborted via panic and faults
// are never swallowed. Side effects already performed before a fault are
// not rolled back.
//
// Stack and frame faults (ErrStackUnderflow, ErrStackOverflow,
// ErrFrameOverflow, ErrFrameUnderflow) are declared next to the containers
// that raise them.

var (
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrConstIndexOutOfRange = errors.New("constant index out of range")
	ErrJumpOutOfRange       = errors.New("jump target out of range")
	ErrUnsupportedOpcode    = errors.New("unsupported opcode")
	ErrStepBudgetExceeded   = errors.New("step budget exceeded")
)
