// Package vm implements the Rill bytecode execution core.
//
// This package contains:
//   - Tagged value representation
//   - Chunk and constant pool data model
//   - Binary chunk codec with CRC32 integrity checking
//   - Bounded operand and call stacks
//   - Bytecode interpreter
//   - Disassembler
package vm
