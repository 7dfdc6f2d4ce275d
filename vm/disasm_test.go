package vm

import (
	"strings"
	"testing"
)

func TestDisassembleInstrForms(t *testing.T) {
	c := NewChunk()
	c.AddConstant(Str("hi"))
	c.Emit(OpNop)                  // 0
	c.EmitArg(OpLoadConst, 0)      // 1
	c.EmitArg(OpLoadConst, 9)      // 2, dangling
	c.EmitArg(OpJump, -2)          // 3
	c.EmitArg(OpJumpIfFalse, 1)    // 4
	c.EmitArg(OpStoreLocal, 2)     // 5
	c.Emit(OpReturnVoid)           // 6

	tests := []struct {
		pos  int
		want string
	}{
		{0, "0000  NOP"},
		{1, `0001  LOAD_CONST 0 ("hi")`},
		{2, "0002  LOAD_CONST 9 (!)"},
		{3, "0003  JUMP -2 (-> 0002)"},
		{4, "0004  JUMP_IF_FALSE 1 (-> 0006)"},
		{5, "0005  STORE_LOCAL 2"},
		{6, "0006  RETURN_VOID"},
	}
	for _, tt := range tests {
		if got := DisassembleInstr(c, tt.pos); got != tt.want {
			t.Errorf("pos %d = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestDisassembleListing(t *testing.T) {
	c := NewChunk()
	c.AddConstant(I64(7))
	c.AddConstant(Str("x"))
	c.EmitArg(OpLoadConst, 0)
	c.Emit(OpPrint)

	out := Disassemble(c)

	for _, want := range []string{
		"constants (2):",
		"0000  i64   7",
		`0001  str   "x"`,
		"code (2):",
		"0000  LOAD_CONST 0 (7)",
		"0001  PRINT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleEmptyChunk(t *testing.T) {
	out := Disassemble(NewChunk())
	if !strings.Contains(out, "constants (0):") || !strings.Contains(out, "code (0):") {
		t.Errorf("empty listing = %q", out)
	}
}
