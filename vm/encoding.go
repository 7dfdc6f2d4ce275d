package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

// ---------------------------------------------------------------------------
// Chunk wire format
// ---------------------------------------------------------------------------
//
// Byte layout, little-endian throughout:
//
//	MAGIC(4="CHNK") | VERSION(1) | FLAGS(1) |
//	N_CONST(u32) | CONST[N_CONST] |
//	N_OPS(u32)   | OP[N_OPS]      |
//	CRC32(u32)
//
// Each constant entry is TAG(1) | payload; each instruction entry is
// TAG(1) | operand sized per opcode. The trailing CRC32 (IEEE polynomial)
// covers every byte preceding it.

// ChunkMagic identifies an encoded chunk.
var ChunkMagic = [4]byte{'C', 'H', 'N', 'K'}

// ChunkVersion is the current wire-format version.
// v1: initial format
const ChunkVersion byte = 1

// Chunk flags
const (
	FlagNone    byte = 0
	FlagCompact byte = 1 << 0 // compact encoding requested by the producer
)

// Constant pool entry tags
const (
	tagNull  byte = 0x00 // no payload
	tagBool  byte = 0x01 // 1 byte
	tagI64   byte = 0x02 // 8 bytes
	tagF64   byte = 0x03 // 8 bytes, IEEE-754
	tagStr   byte = 0x04 // LEN(u32) | UTF-8 bytes
	tagBytes byte = 0x05 // LEN(u32) | raw bytes
)

// chunkHeaderSize is the minimum size of a well-formed encoding:
// magic(4) + version(1) + flags(1) + n_const(4) + n_ops(4) + crc(4).
const chunkHeaderSize = 18

// ---------------------------------------------------------------------------
// Load-time error types
// ---------------------------------------------------------------------------

var (
	ErrBadMagic        = errors.New("bad chunk magic: expected CHNK")
	ErrVersionMismatch = errors.New("unsupported chunk version")
	ErrTruncated       = errors.New("truncated chunk")
	ErrUnknownConstTag = errors.New("unknown constant tag")
	ErrUnknownOpcode   = errors.New("unknown opcode tag")
	ErrBadConstIndex   = errors.New("instruction references missing constant")
)

// IntegrityError reports a checksum mismatch between the encoded payload
// and its trailing CRC32. No chunk is ever returned alongside one.
type IntegrityError struct {
	Expected uint32 // checksum recomputed over the payload
	Found    uint32 // checksum stored in the encoding
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("chunk integrity check failed: computed %08x, stored %08x", e.Expected, e.Found)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// EncodeChunk serializes a chunk to its wire format. Encoding is
// deterministic and never fails; the trailing CRC32 is computed over every
// byte written before it.
func EncodeChunk(c *Chunk) []byte {
	buf := make([]byte, 0, chunkHeaderSize+16*len(c.Code))

	buf = append(buf, ChunkMagic[:]...)
	buf = append(buf, ChunkVersion)
	flags := FlagNone
	if c.Compact {
		flags |= FlagCompact
	}
	buf = append(buf, flags)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Constants.Len()))
	for _, v := range c.Constants.values {
		buf = appendConst(buf, v)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Code)))
	for _, ins := range c.Code {
		buf = appendInstr(buf, ins)
	}

	return binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

func appendConst(buf []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(buf, tagNull)
	case KindBool:
		if v.b {
			return append(buf, tagBool, 1)
		}
		return append(buf, tagBool, 0)
	case KindI64:
		buf = append(buf, tagI64)
		return binary.LittleEndian.AppendUint64(buf, uint64(v.i))
	case KindF64:
		buf = append(buf, tagF64)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.f))
	case KindStr:
		buf = append(buf, tagStr)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.s)))
		return append(buf, v.s...)
	case KindBytes:
		buf = append(buf, tagBytes)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.raw)))
		return append(buf, v.raw...)
	default:
		return append(buf, tagNull)
	}
}

func appendInstr(buf []byte, ins Instr) []byte {
	buf = append(buf, byte(ins.Op))
	switch ins.Op.Info().Operand {
	case OperandU8:
		return append(buf, byte(ins.Arg))
	case OperandU32:
		return binary.LittleEndian.AppendUint32(buf, uint32(ins.Arg))
	case OperandI32:
		return binary.LittleEndian.AppendUint32(buf, uint32(int32(ins.Arg)))
	default:
		return buf
	}
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeChunk parses an encoded chunk. It rejects truncated input, wrong
// magic, unsupported versions, unknown tags, constant references that do
// not resolve, and any checksum mismatch. The checksum is verified before
// the constant pool or instructions are parsed, so corrupt payload bytes
// are never structurally interpreted; no partially decoded chunk is ever
// returned.
func DecodeChunk(data []byte) (*Chunk, error) {
	if len(data) < chunkHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if data[0] != ChunkMagic[0] || data[1] != ChunkMagic[1] ||
		data[2] != ChunkMagic[2] || data[3] != ChunkMagic[3] {
		return nil, fmt.Errorf("%w: got %q", ErrBadMagic, string(data[:4]))
	}
	if data[4] != ChunkVersion {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrVersionMismatch, ChunkVersion, data[4])
	}

	payload := data[:len(data)-4]
	found := binary.LittleEndian.Uint32(data[len(data)-4:])
	if expected := crc32.ChecksumIEEE(payload); expected != found {
		return nil, &IntegrityError{Expected: expected, Found: found}
	}

	r := &chunkReader{data: payload, off: 6}
	c := &Chunk{Compact: data[5]&FlagCompact != 0}

	nConst, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nConst; i++ {
		v, err := r.readConst()
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		c.Constants.Add(v)
	}

	nOps, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nOps; i++ {
		ins, err := r.readInstr()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if ins.Op == OpLoadConst && uint32(ins.Arg) >= nConst {
			return nil, fmt.Errorf("%w: instruction %d wants constant %d of %d",
				ErrBadConstIndex, i, ins.Arg, nConst)
		}
		c.Code = append(c.Code, ins)
	}

	if r.off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", ErrTruncated, len(payload)-r.off)
	}
	return c, nil
}

// chunkReader walks the payload with bounds checks on every read.
type chunkReader struct {
	data []byte
	off  int
}

func (r *chunkReader) readByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, ErrTruncated
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *chunkReader) readUint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *chunkReader) readUint64() (uint64, error) {
	if r.off+8 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

func (r *chunkReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *chunkReader) readConst() (Value, error) {
	tag, err := r.readByte()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagNull:
		return Null(), nil
	case tagBool:
		b, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil
	case tagI64:
		u, err := r.readUint64()
		if err != nil {
			return Value{}, err
		}
		return I64(int64(u)), nil
	case tagF64:
		u, err := r.readUint64()
		if err != nil {
			return Value{}, err
		}
		return F64(math.Float64frombits(u)), nil
	case tagStr:
		n, err := r.readUint32()
		if err != nil {
			return Value{}, err
		}
		b, err := r.readBytes(int(n))
		if err != nil {
			return Value{}, err
		}
		return Str(string(b)), nil
	case tagBytes:
		n, err := r.readUint32()
		if err != nil {
			return Value{}, err
		}
		b, err := r.readBytes(int(n))
		if err != nil {
			return Value{}, err
		}
		return Bytes(b), nil
	default:
		return Value{}, fmt.Errorf("%w: %02x", ErrUnknownConstTag, tag)
	}
}

func (r *chunkReader) readInstr() (Instr, error) {
	tag, err := r.readByte()
	if err != nil {
		return Instr{}, err
	}
	op := Opcode(tag)
	if !op.Valid() {
		return Instr{}, fmt.Errorf("%w: %02x", ErrUnknownOpcode, tag)
	}
	switch op.Info().Operand {
	case OperandU8:
		b, err := r.readByte()
		if err != nil {
			return Instr{}, err
		}
		return WithArg(op, int64(b)), nil
	case OperandU32:
		u, err := r.readUint32()
		if err != nil {
			return Instr{}, err
		}
		return WithArg(op, int64(u)), nil
	case OperandI32:
		u, err := r.readUint32()
		if err != nil {
			return Instr{}, err
		}
		return WithArg(op, int64(int32(u))), nil
	default:
		return At(op), nil
	}
}
