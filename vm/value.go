package vm

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: tagged runtime representation
// ---------------------------------------------------------------------------

// Kind identifies the type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindF64
	KindStr
	KindBytes
)

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged variant over null, bool, i64, f64, str and bytes.
// The same representation serves constant-pool entries and runtime values;
// the two differ only in lifecycle. A Value placed in a constant pool is
// immutable and may be shared read-only across interpreter instances.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// I64 returns a 64-bit signed integer value.
func I64(n int64) Value {
	return Value{kind: KindI64, i: n}
}

// F64 returns a 64-bit float value.
func F64(x float64) Value {
	return Value{kind: KindF64, f: x}
}

// Str returns a string value.
func Str(s string) Value {
	return Value{kind: KindStr, s: s}
}

// Bytes returns a binary blob value. The input slice is copied so the
// Value owns its payload exclusively.
func Bytes(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{kind: KindBytes, raw: owned}
}

// ---------------------------------------------------------------------------
// Type checking and accessors
// ---------------------------------------------------------------------------

// Kind returns the value's type tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if v is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsNumeric returns true if v is an i64 or f64.
func (v Value) IsNumeric() bool {
	return v.kind == KindI64 || v.kind == KindF64
}

// AsBool returns the boolean payload. Only valid when Kind is KindBool.
func (v Value) AsBool() bool {
	return v.b
}

// AsI64 returns the integer payload. Only valid when Kind is KindI64.
func (v Value) AsI64() int64 {
	return v.i
}

// AsF64 returns the float payload. Only valid when Kind is KindF64.
func (v Value) AsF64() float64 {
	return v.f
}

// AsStr returns the string payload. Only valid when Kind is KindStr.
func (v Value) AsStr() string {
	return v.s
}

// AsBytes returns the raw payload. Only valid when Kind is KindBytes.
// The returned slice aliases the value's storage and must not be mutated.
func (v Value) AsBytes() []byte {
	return v.raw
}

// widen returns the numeric payload as a float64. Only valid when v is
// numeric.
func (v Value) widen() float64 {
	if v.kind == KindI64 {
		return float64(v.i)
	}
	return v.f
}

// ---------------------------------------------------------------------------
// Semantics shared by the interpreter
// ---------------------------------------------------------------------------

// Truthy reports the boolean interpretation of v: null is false, bool is
// itself, numbers are true when nonzero, strings and byte blobs are true
// when non-empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindI64:
		return v.i != 0
	case KindF64:
		return v.f != 0
	case KindStr:
		return len(v.s) != 0
	case KindBytes:
		return len(v.raw) != 0
	default:
		return false
	}
}

// Equal reports cross-kind-tolerant equality: an i64 and an f64 compare
// equal when they match after widening; all other kinds compare only within
// the same kind. Otherwise-incomparable pairs are unequal, never an error.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindI64 && o.kind == KindI64 {
			return v.i == o.i
		}
		return v.widen() == o.widen()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindStr:
		return v.s == o.s
	case KindBytes:
		if len(v.raw) != len(o.raw) {
			return false
		}
		for i := range v.raw {
			if v.raw[i] != o.raw[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Display returns the value's display form, the representation written by
// the interpreter's print instruction. Strings print their raw content;
// byte blobs print as 0x-prefixed hex.
func (v Value) Display() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindI64:
		return strconv.FormatInt(v.i, 10)
	case KindF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindStr:
		return v.s
	case KindBytes:
		return "0x" + hex.EncodeToString(v.raw)
	default:
		return "?"
	}
}

// String returns a debug form that quotes strings, for error messages and
// disassembly. Display is the user-visible form.
func (v Value) String() string {
	switch v.kind {
	case KindStr:
		return strconv.Quote(v.s)
	default:
		return v.Display()
	}
}
