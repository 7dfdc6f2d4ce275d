package vm

import (
	"fmt"
	"io"
	"math"
	"os"
)

// ---------------------------------------------------------------------------
// Interp: the bytecode execution engine
// ---------------------------------------------------------------------------

// State tracks an interpreter's position in its lifecycle.
type State uint8

const (
	StateReady   State = iota // created or reset, not yet run
	StateRunning              // inside the dispatch loop
	StateHalted               // terminated normally
	StateFaulted              // terminated with a runtime fault
)

// String implements the Stringer interface.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Default resource ceilings. Both are configurable per instance; zero
// disables the bound.
const (
	DefaultStackLimit = 1024
	DefaultFrameLimit = 256
)

// Interp executes one chunk. It owns its operand stack and call stack
// exclusively and holds the chunk read-only, so any number of instances
// may share a chunk from separate goroutines as long as each instance is
// driven by a single goroutine. The dispatch loop is strictly synchronous:
// it never suspends mid-instruction, and cancellation is cooperative via
// the step budget.
type Interp struct {
	chunk  *Chunk
	ops    *Stack[Value]
	frames *CallStack
	ip     int
	state  State
	budget uint64 // step ceiling, 0 = unlimited
	steps  uint64
	out    io.Writer
}

// NewInterp creates an interpreter for a chunk with default limits and
// output on stdout.
func NewInterp(chunk *Chunk) *Interp {
	return &Interp{
		chunk:  chunk,
		ops:    NewStack[Value](DefaultStackLimit),
		frames: NewCallStack(DefaultFrameLimit),
		out:    os.Stdout,
	}
}

// SetOutput redirects the print instruction's side effect.
func (in *Interp) SetOutput(w io.Writer) {
	in.out = w
}

// SetStepBudget configures the cooperative execution ceiling, checked once
// per dispatched instruction (0 = unlimited). Exceeding it faults with
// ErrStepBudgetExceeded rather than force-terminating, so no
// partial-instruction state is ever left behind.
func (in *Interp) SetStepBudget(n uint64) {
	in.budget = n
}

// SetStackLimit configures the operand stack ceiling (0 = unbounded).
func (in *Interp) SetStackLimit(n int) {
	in.ops.SetLimit(n)
}

// SetFrameLimit configures the call stack depth limit (0 = unbounded).
func (in *Interp) SetFrameLimit(n int) {
	in.frames.SetLimit(n)
}

// State returns the interpreter's lifecycle state.
func (in *Interp) State() State {
	return in.state
}

// Steps returns the number of instructions dispatched since the last reset.
func (in *Interp) Steps() uint64 {
	return in.steps
}

// CallDepth returns the number of live call frames.
func (in *Interp) CallDepth() int {
	return in.frames.Depth()
}

// OperandStack exposes the operand stack for embedders that drive the
// call protocol directly, e.g. to push arguments before BeginCall.
func (in *Interp) OperandStack() *Stack[Value] {
	return in.ops
}

// Reset returns the interpreter to the ready state: stacks cleared,
// instruction pointer at zero, step count at zero. The chunk is untouched.
func (in *Interp) Reset() {
	in.ops.Clear()
	in.frames.Clear()
	in.ip = 0
	in.steps = 0
	in.state = StateReady
}

// ---------------------------------------------------------------------------
// Call/return protocol
// ---------------------------------------------------------------------------

// BeginCall pushes a call frame for a callee whose body starts at targetIP.
// The caller must already have pushed argc argument values onto the operand
// stack in left-to-right order; the frame's base pointer is the operand
// stack length minus argc. The locals count reserves the slot window
// [BP+Argc, BP+Argc+locals) logically; the caller is responsible for
// materializing those slots before loading them.
func (in *Interp) BeginCall(name string, targetIP, retIP, argc, locals int) error {
	if argc < 0 || argc > in.ops.Len() {
		return fmt.Errorf("%w: %d args, operand stack holds %d", ErrStackUnderflow, argc, in.ops.Len())
	}
	frame := CallFrame{
		Name:   name,
		IP:     targetIP,
		RetIP:  retIP,
		BP:     in.ops.Len() - argc,
		Argc:   argc,
		Locals: locals,
	}
	if err := in.frames.Push(frame); err != nil {
		return err
	}
	in.ip = targetIP
	return nil
}

// EndCallPushReturn pops the current frame, truncates the operand stack
// back to its base pointer — discarding arguments, locals, and any
// temporaries the callee left behind in one step — then pushes value as
// the sole result. It returns the frame's return address. The operand
// stack length afterwards is always (length before BeginCall) - argc + 1.
func (in *Interp) EndCallPushReturn(value Value) (int, error) {
	frame, err := in.frames.Pop()
	if err != nil {
		return 0, err
	}
	if err := in.ops.TruncateTo(frame.BP); err != nil {
		return 0, err
	}
	if err := in.ops.Push(value); err != nil {
		return 0, err
	}
	return frame.RetIP, nil
}

// frameBase returns the local-slot base for the current frame, or zero at
// call depth zero (top-level locals live at the bottom of the stack).
func (in *Interp) frameBase() int {
	if f, err := in.frames.Current(); err == nil {
		return f.BP
	}
	return 0
}

// ---------------------------------------------------------------------------
// Dispatch loop
// ---------------------------------------------------------------------------

// Run executes the chunk from the current instruction pointer until the
// instruction sequence ends, a return executes at call depth zero, or a
// fault occurs. A halted or faulted interpreter is reset automatically, so
// calling Run again re-executes the chunk from the start.
//
// On normal completion the result is the returned value (null for
// fall-through or RETURN_VOID). On a fault the error identifies the cause
// and the interpreter stays inspectable in the faulted state.
func (in *Interp) Run() (Value, error) {
	if in.state == StateRunning {
		return Null(), fmt.Errorf("interpreter is already running")
	}
	if in.state != StateReady {
		in.Reset()
	}
	in.state = StateRunning

	code := in.chunk.Code
	for {
		if in.ip < 0 || in.ip >= len(code) {
			// Natural end of the instruction sequence.
			in.state = StateHalted
			return Null(), nil
		}

		in.steps++
		if in.budget > 0 && in.steps > in.budget {
			return in.fault(fmt.Errorf("%w: budget %d", ErrStepBudgetExceeded, in.budget))
		}

		ins := code[in.ip]
		switch ins.Op {
		case OpNop:
			// Do nothing.

		case OpPop:
			if _, err := in.pop(ins.Op); err != nil {
				return in.fault(err)
			}

		case OpPrint:
			v, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			fmt.Fprintln(in.out, v.Display())

		case OpLoadConst:
			v, ok := in.chunk.Constants.Get(uint32(ins.Arg))
			if !ok {
				return in.fault(fmt.Errorf("%w: %d of %d", ErrConstIndexOutOfRange, ins.Arg, in.chunk.Constants.Len()))
			}
			if err := in.ops.Push(v); err != nil {
				return in.fault(err)
			}

		case OpLoadTrue:
			if err := in.ops.Push(Bool(true)); err != nil {
				return in.fault(err)
			}

		case OpLoadFalse:
			if err := in.ops.Push(Bool(false)); err != nil {
				return in.fault(err)
			}

		case OpLoadNull:
			if err := in.ops.Push(Null()); err != nil {
				return in.fault(err)
			}

		case OpLoadLocal:
			slot := in.frameBase() + int(ins.Arg)
			v, err := in.ops.Get(slot)
			if err != nil {
				return in.fault(fmt.Errorf("%w: %s slot %d", ErrStackUnderflow, ins.Op.Name(), ins.Arg))
			}
			if err := in.ops.Push(v); err != nil {
				return in.fault(err)
			}

		case OpStoreLocal:
			v, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			slot := in.frameBase() + int(ins.Arg)
			// Slots materialize on first write, null-filled up to the
			// index used, under the same overflow policy as pushes.
			for in.ops.Len() <= slot {
				if err := in.ops.Push(Null()); err != nil {
					return in.fault(err)
				}
			}
			if err := in.ops.Set(slot, v); err != nil {
				return in.fault(err)
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			b, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			a, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			r, err := arith(ins.Op, a, b)
			if err != nil {
				return in.fault(err)
			}
			if err := in.ops.Push(r); err != nil {
				return in.fault(err)
			}

		case OpNeg:
			a, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			var r Value
			switch a.Kind() {
			case KindI64:
				r = I64(-a.AsI64())
			case KindF64:
				r = F64(-a.AsF64())
			default:
				return in.fault(fmt.Errorf("%w: NEG on %s", ErrTypeMismatch, a.Kind()))
			}
			if err := in.ops.Push(r); err != nil {
				return in.fault(err)
			}

		case OpNot:
			a, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			if err := in.ops.Push(Bool(!a.Truthy())); err != nil {
				return in.fault(err)
			}

		case OpEq, OpNe:
			b, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			a, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			eq := a.Equal(b)
			if ins.Op == OpNe {
				eq = !eq
			}
			if err := in.ops.Push(Bool(eq)); err != nil {
				return in.fault(err)
			}

		case OpLt, OpLe, OpGt, OpGe:
			b, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			a, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			r, err := ordered(ins.Op, a, b)
			if err != nil {
				return in.fault(err)
			}
			if err := in.ops.Push(Bool(r)); err != nil {
				return in.fault(err)
			}

		case OpJump:
			target := in.ip + 1 + int(ins.Arg)
			if target < 0 || target >= len(code) {
				return in.fault(fmt.Errorf("%w: %d, code length %d", ErrJumpOutOfRange, target, len(code)))
			}
			in.ip = target
			continue

		case OpJumpIfFalse:
			v, err := in.pop(ins.Op)
			if err != nil {
				return in.fault(err)
			}
			if !v.Truthy() {
				target := in.ip + 1 + int(ins.Arg)
				if target < 0 || target >= len(code) {
					return in.fault(fmt.Errorf("%w: %d, code length %d", ErrJumpOutOfRange, target, len(code)))
				}
				in.ip = target
				continue
			}

		case OpReturn:
			// The result is the frame's top value; a frame that produced
			// nothing returns null.
			v := Null()
			if in.ops.Len() > in.frameBase() {
				popped, err := in.ops.Pop()
				if err != nil {
					return in.fault(err)
				}
				v = popped
			}
			if in.frames.Depth() == 0 {
				in.state = StateHalted
				return v, nil
			}
			retIP, err := in.EndCallPushReturn(v)
			if err != nil {
				return in.fault(err)
			}
			in.ip = retIP
			continue

		case OpReturnVoid:
			if in.frames.Depth() == 0 {
				in.state = StateHalted
				return Null(), nil
			}
			retIP, err := in.EndCallPushReturn(Null())
			if err != nil {
				return in.fault(err)
			}
			in.ip = retIP
			continue

		case OpCall, OpTailCall, OpMakeClosure, OpLoadUpvalue, OpStoreUpvalue:
			return in.fault(fmt.Errorf("%w: %s", ErrUnsupportedOpcode, ins.Op.Name()))

		default:
			return in.fault(fmt.Errorf("%w: %s", ErrUnsupportedOpcode, ins.Op.Name()))
		}

		in.ip++
	}
}

// pop wraps operand-stack underflow with the name of the faulting opcode.
func (in *Interp) pop(op Opcode) (Value, error) {
	v, err := in.ops.Pop()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", ErrStackUnderflow, op.Name())
	}
	return v, nil
}

// fault records the terminal state and surfaces the error.
func (in *Interp) fault(err error) (Value, error) {
	in.state = StateFaulted
	return Null(), err
}

// ---------------------------------------------------------------------------
// Numeric semantics
// ---------------------------------------------------------------------------

// arith applies a binary numeric operation. Two i64 operands produce an
// i64; any numeric pair involving an f64 is promoted to f64. Division and
// modulo by zero fault regardless of numeric kind, and non-numeric
// operands are a type mismatch.
func arith(op Opcode, a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, fmt.Errorf("%w: %s on %s and %s", ErrTypeMismatch, op.Name(), a.Kind(), b.Kind())
	}

	if a.Kind() == KindI64 && b.Kind() == KindI64 {
		x, y := a.AsI64(), b.AsI64()
		switch op {
		case OpAdd:
			return I64(x + y), nil
		case OpSub:
			return I64(x - y), nil
		case OpMul:
			return I64(x * y), nil
		case OpDiv:
			if y == 0 {
				return Value{}, ErrDivisionByZero
			}
			return I64(x / y), nil
		case OpMod:
			if y == 0 {
				return Value{}, ErrDivisionByZero
			}
			return I64(x % y), nil
		}
	}

	x, y := a.widen(), b.widen()
	switch op {
	case OpAdd:
		return F64(x + y), nil
	case OpSub:
		return F64(x - y), nil
	case OpMul:
		return F64(x * y), nil
	case OpDiv:
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		return F64(x / y), nil
	case OpMod:
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		return F64(math.Mod(x, y)), nil
	}
	return Value{}, fmt.Errorf("%w: %s is not arithmetic", ErrTypeMismatch, op.Name())
}

// ordered applies an ordered comparison. Both operands must be numeric;
// mixed i64/f64 pairs are widened to f64 first.
func ordered(op Opcode, a, b Value) (bool, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return false, fmt.Errorf("%w: %s on %s and %s", ErrTypeMismatch, op.Name(), a.Kind(), b.Kind())
	}

	if a.Kind() == KindI64 && b.Kind() == KindI64 {
		x, y := a.AsI64(), b.AsI64()
		switch op {
		case OpLt:
			return x < y, nil
		case OpLe:
			return x <= y, nil
		case OpGt:
			return x > y, nil
		case OpGe:
			return x >= y, nil
		}
	}

	x, y := a.widen(), b.widen()
	switch op {
	case OpLt:
		return x < y, nil
	case OpLe:
		return x <= y, nil
	case OpGt:
		return x > y, nil
	case OpGe:
		return x >= y, nil
	}
	return false, fmt.Errorf("%w: %s is not a comparison", ErrTypeMismatch, op.Name())
}
