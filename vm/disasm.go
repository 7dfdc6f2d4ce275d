package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstr formats one instruction at the given index. Jump
// operands are annotated with their computed target, LOAD_CONST operands
// with the referenced constant when it resolves.
func DisassembleInstr(c *Chunk, pos int) string {
	ins := c.Code[pos]
	info := ins.Op.Info()

	switch {
	case ins.Op == OpJump || ins.Op == OpJumpIfFalse:
		target := pos + 1 + int(ins.Arg)
		return fmt.Sprintf("%04d  %s %d (-> %04d)", pos, info.Name, ins.Arg, target)

	case ins.Op == OpLoadConst:
		if v, ok := c.Constants.Get(uint32(ins.Arg)); ok {
			return fmt.Sprintf("%04d  %s %d (%s)", pos, info.Name, ins.Arg, v)
		}
		return fmt.Sprintf("%04d  %s %d (!)", pos, info.Name, ins.Arg)

	case info.Operand != OperandNone:
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, ins.Arg)

	default:
		return fmt.Sprintf("%04d  %s", pos, info.Name)
	}
}

// Disassemble returns a full listing of a chunk: the constant pool
// followed by the instruction sequence.
func Disassemble(c *Chunk) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "constants (%d):\n", c.Constants.Len())
	for i, v := range c.Constants.values {
		fmt.Fprintf(&sb, "  %04d  %-5s %s\n", i, v.Kind(), v)
	}

	fmt.Fprintf(&sb, "code (%d):\n", len(c.Code))
	for i := range c.Code {
		sb.WriteString("  ")
		sb.WriteString(DisassembleInstr(c, i))
		sb.WriteByte('\n')
	}
	return sb.String()
}
