package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction tag.
type Opcode byte

// Stack Operations
const (
	OpNop   Opcode = 0x00 // no operation
	OpPop   Opcode = 0x01 // discard top of stack
	OpPrint Opcode = 0x02 // pop and write display form
)

// Constants
const (
	OpLoadConst Opcode = 0x10 // push constant from pool (u32 index)
	OpLoadTrue  Opcode = 0x11 // push true
	OpLoadFalse Opcode = 0x12 // push false
	OpLoadNull  Opcode = 0x13 // push null
)

// Locals
const (
	OpLoadLocal  Opcode = 0x20 // push local slot (u32 index)
	OpStoreLocal Opcode = 0x21 // pop into local slot (u32 index)
)

// Arithmetic
const (
	OpAdd Opcode = 0x30 // +
	OpSub Opcode = 0x31 // -
	OpMul Opcode = 0x32 // *
	OpDiv Opcode = 0x33 // /
	OpMod Opcode = 0x34 // %
	OpNeg Opcode = 0x35 // unary -
	OpNot Opcode = 0x36 // logical not of truthiness
)

// Comparisons
const (
	OpEq Opcode = 0x40 // ==
	OpNe Opcode = 0x41 // !=
	OpLt Opcode = 0x42 // <
	OpLe Opcode = 0x43 // <=
	OpGt Opcode = 0x44 // >
	OpGe Opcode = 0x45 // >=
)

// Control Flow
const (
	OpJump        Opcode = 0x50 // unconditional jump (i32 relative offset)
	OpJumpIfFalse Opcode = 0x51 // pop, jump if not truthy (i32 relative offset)
)

// Returns
const (
	OpReturn     Opcode = 0x60 // return top of stack, null if the frame is empty
	OpReturnVoid Opcode = 0x61 // return null
)

// Reserved placeholders. These are valid wire-format entries so that a
// future closures/calls extension does not require a format version bump,
// but executing any of them always faults.
const (
	OpCall         Opcode = 0x70 // call (u8 argc)
	OpTailCall     Opcode = 0x71 // tail call (u8 argc)
	OpMakeClosure  Opcode = 0x72 // create closure (u32 function index)
	OpLoadUpvalue  Opcode = 0x73 // push upvalue (u32 index)
	OpStoreUpvalue Opcode = 0x74 // store into upvalue (u32 index)
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OperandKind describes the wire encoding of an opcode's operand.
type OperandKind uint8

const (
	OperandNone OperandKind = iota // no operand
	OperandU8                      // 1-byte unsigned operand
	OperandU32                     // 4-byte unsigned operand (little-endian)
	OperandI32                     // 4-byte signed operand (little-endian)
)

// Width returns the operand size in bytes on the wire.
func (k OperandKind) Width() int {
	switch k {
	case OperandU8:
		return 1
	case OperandU32, OperandI32:
		return 4
	default:
		return 0
	}
}

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string      // human-readable name
	Operand     OperandKind // wire encoding of the operand
	Unsupported bool        // reserved placeholder, faults at execution
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	// Stack operations
	OpNop:   {Name: "NOP"},
	OpPop:   {Name: "POP"},
	OpPrint: {Name: "PRINT"},

	// Constants
	OpLoadConst: {Name: "LOAD_CONST", Operand: OperandU32},
	OpLoadTrue:  {Name: "LOAD_TRUE"},
	OpLoadFalse: {Name: "LOAD_FALSE"},
	OpLoadNull:  {Name: "LOAD_NULL"},

	// Locals
	OpLoadLocal:  {Name: "LOAD_LOCAL", Operand: OperandU32},
	OpStoreLocal: {Name: "STORE_LOCAL", Operand: OperandU32},

	// Arithmetic
	OpAdd: {Name: "ADD"},
	OpSub: {Name: "SUB"},
	OpMul: {Name: "MUL"},
	OpDiv: {Name: "DIV"},
	OpMod: {Name: "MOD"},
	OpNeg: {Name: "NEG"},
	OpNot: {Name: "NOT"},

	// Comparisons
	OpEq: {Name: "EQ"},
	OpNe: {Name: "NE"},
	OpLt: {Name: "LT"},
	OpLe: {Name: "LE"},
	OpGt: {Name: "GT"},
	OpGe: {Name: "GE"},

	// Control flow
	OpJump:        {Name: "JUMP", Operand: OperandI32},
	OpJumpIfFalse: {Name: "JUMP_IF_FALSE", Operand: OperandI32},

	// Returns
	OpReturn:     {Name: "RETURN"},
	OpReturnVoid: {Name: "RETURN_VOID"},

	// Reserved placeholders
	OpCall:         {Name: "CALL", Operand: OperandU8, Unsupported: true},
	OpTailCall:     {Name: "TAIL_CALL", Operand: OperandU8, Unsupported: true},
	OpMakeClosure:  {Name: "MAKE_CLOSURE", Operand: OperandU32, Unsupported: true},
	OpLoadUpvalue:  {Name: "LOAD_UPVALUE", Operand: OperandU32, Unsupported: true},
	OpStoreUpvalue: {Name: "STORE_UPVALUE", Operand: OperandU32, Unsupported: true},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Valid returns true if op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Instr: one decoded instruction
// ---------------------------------------------------------------------------

// Instr is a single decoded instruction: an opcode plus its operand.
// Arg holds a u32 index, an i32 relative jump offset, or a u8 argument
// count depending on the opcode's OperandKind; it is zero for opcodes
// without an operand.
type Instr struct {
	Op  Opcode
	Arg int64
}

// At returns an instruction with no operand.
func At(op Opcode) Instr {
	return Instr{Op: op}
}

// WithArg returns an instruction carrying an operand.
func WithArg(op Opcode, arg int64) Instr {
	return Instr{Op: op, Arg: arg}
}

// String implements the Stringer interface.
func (ins Instr) String() string {
	if ins.Op.Info().Operand == OperandNone {
		return ins.Op.Name()
	}
	return fmt.Sprintf("%s %d", ins.Op.Name(), ins.Arg)
}
