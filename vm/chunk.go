package vm

// ---------------------------------------------------------------------------
// Chunk: the immutable unit of compiled bytecode
// ---------------------------------------------------------------------------

// Chunk is the top-level owned unit of bytecode: a constant pool plus an
// instruction sequence. A chunk is produced once, by a compiler or by hand
// assembly through the emit helpers, then treated as immutable; running it
// never mutates it, so one chunk may back any number of interpreter
// instances.
type Chunk struct {
	Constants ConstantPool
	Code      []Instr
	Compact   bool
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// AddConstant appends a value to the constant pool and returns its index.
func (c *Chunk) AddConstant(v Value) uint32 {
	return c.Constants.Add(v)
}

// Emit appends an instruction with no operand and returns its index.
func (c *Chunk) Emit(op Opcode) int {
	c.Code = append(c.Code, At(op))
	return len(c.Code) - 1
}

// EmitArg appends an instruction with an operand and returns its index.
func (c *Chunk) EmitArg(op Opcode, arg int64) int {
	c.Code = append(c.Code, WithArg(op, arg))
	return len(c.Code) - 1
}

// EmitConst adds v to the pool and emits a LOAD_CONST for it.
func (c *Chunk) EmitConst(v Value) int {
	return c.EmitArg(OpLoadConst, int64(c.AddConstant(v)))
}

// Equal reports structural equality of constants and instructions.
// The compact flag is presentation metadata and does not participate.
func (c *Chunk) Equal(o *Chunk) bool {
	if len(c.Code) != len(o.Code) {
		return false
	}
	for i := range c.Code {
		if c.Code[i] != o.Code[i] {
			return false
		}
	}
	return c.Constants.Equal(&o.Constants)
}

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

// Label represents a jump target, possibly a forward reference.
// Jump operands are relative to the instruction after the jump, so a jump
// at index i with offset d lands at i+1+d.
type Label struct {
	resolved bool
	target   int   // instruction index (if resolved)
	refs     []int // jump instruction indices awaiting patching
}

// NewLabel creates an unresolved label.
func (c *Chunk) NewLabel() *Label {
	return &Label{refs: make([]int, 0, 2)}
}

// Mark resolves a label to the next emitted instruction and patches all
// forward references to it.
func (c *Chunk) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.target = len(c.Code)

	for _, ref := range label.refs {
		c.Code[ref].Arg = int64(label.target - (ref + 1))
	}
	label.refs = nil
}

// EmitJump emits a jump instruction targeting a label. Backward jumps are
// encoded immediately; forward jumps are patched when the label is marked.
func (c *Chunk) EmitJump(op Opcode, label *Label) int {
	idx := len(c.Code)
	if label.resolved {
		c.Code = append(c.Code, WithArg(op, int64(label.target-(idx+1))))
	} else {
		label.refs = append(label.refs, idx)
		c.Code = append(c.Code, WithArg(op, 0))
	}
	return idx
}
