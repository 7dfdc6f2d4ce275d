package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"os"

	"github.com/rill-lang/rill/vm"
)

// cmdDisasm prints a chunk's full disassembly.
func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("disasm expects exactly one chunk file")
	}

	chunk, err := loadChunk(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Print(vm.Disassemble(chunk))
	return nil
}

// cmdInfo summarizes a chunk file without executing it.
func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("info expects exactly one chunk file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	chunk, err := vm.DecodeChunk(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("file:         %s\n", path)
	fmt.Printf("size:         %d bytes\n", len(data))
	fmt.Printf("sha256:       %x\n", sha256.Sum256(data))
	fmt.Printf("version:      %d\n", vm.ChunkVersion)
	fmt.Printf("compact:      %v\n", chunk.Compact)
	fmt.Printf("constants:    %d\n", chunk.Constants.Len())
	fmt.Printf("instructions: %d\n", len(chunk.Code))
	return nil
}
