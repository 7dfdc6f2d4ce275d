package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// CallFrame: execution state for one invocation
// ---------------------------------------------------------------------------

var (
	ErrFrameOverflow  = errors.New("call stack overflow")
	ErrFrameUnderflow = errors.New("call stack underflow")
)

// CallFrame records what one invocation needs to resume its caller: the
// base pointer into the operand stack, the argument/local window, and the
// return address. Locals and arguments are addressed as plain integer
// offsets from BP, never as pointers.
type CallFrame struct {
	Name   string // callee name, for diagnostics
	IP     int    // entry instruction index of the callee
	RetIP  int    // instruction index the caller resumes at
	BP     int    // operand-stack index where the frame's window starts
	Argc   int    // number of argument slots at [BP, BP+Argc)
	Locals int    // reserved local slots at [BP+Argc, BP+Argc+Locals)
}

// CallStack is a bounded sequence of call frames. The depth limit is the
// primary defense against unbounded recursion.
type CallStack struct {
	frames *Stack[CallFrame]
}

// NewCallStack creates a call stack with the given depth limit
// (0 = unbounded).
func NewCallStack(limit int) *CallStack {
	return &CallStack{frames: NewStack[CallFrame](limit)}
}

// SetLimit changes the depth limit.
func (cs *CallStack) SetLimit(limit int) {
	cs.frames.SetLimit(limit)
}

// Depth returns the number of live frames.
func (cs *CallStack) Depth() int {
	return cs.frames.Len()
}

// Push appends a frame, failing with ErrFrameOverflow at the depth limit.
func (cs *CallStack) Push(f CallFrame) error {
	if err := cs.frames.Push(f); err != nil {
		return fmt.Errorf("%w: depth %d", ErrFrameOverflow, cs.frames.Len())
	}
	return nil
}

// Pop removes and returns the current frame.
func (cs *CallStack) Pop() (CallFrame, error) {
	f, err := cs.frames.Pop()
	if err != nil {
		return CallFrame{}, ErrFrameUnderflow
	}
	return f, nil
}

// Current returns a pointer to the current frame without popping it. The
// pointer is invalidated by the next push or pop.
func (cs *CallStack) Current() (*CallFrame, error) {
	f, err := cs.frames.PeekRef()
	if err != nil {
		return nil, ErrFrameUnderflow
	}
	return f, nil
}

// Clear discards all frames.
func (cs *CallStack) Clear() {
	cs.frames.Clear()
}
