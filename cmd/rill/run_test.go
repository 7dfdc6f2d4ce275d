package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rill-lang/rill/vm"
)

func TestLoadChunk(t *testing.T) {
	c := vm.NewChunk()
	c.EmitConst(vm.I64(7))
	c.Emit(vm.OpReturn)

	path := filepath.Join(t.TempDir(), "main.rlc")
	if err := os.WriteFile(path, vm.EncodeChunk(c), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadChunk(path)
	if err != nil {
		t.Fatalf("loadChunk failed: %v", err)
	}
	if !got.Equal(c) {
		t.Error("loaded chunk differs from the written one")
	}
}

func TestLoadChunkErrors(t *testing.T) {
	if _, err := loadChunk(filepath.Join(t.TempDir(), "missing.rlc")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "junk.rlc")
	if err := os.WriteFile(path, []byte("not a chunk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadChunk(path); err == nil {
		t.Error("junk file should fail")
	}
}
