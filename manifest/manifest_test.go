package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rill-lang/rill/vm"
)

const sampleToml = `
[project]
name = "demo"
version = "0.1.0"

[vm]
stack-limit = 512
frame-limit = 64
step-budget = 100000

[cache]
path = "build/chunks.db"

[bundle]
output = "demo.rlb"
`

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "rill.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, sampleToml)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "demo" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.VM.StackLimit != 512 || m.VM.FrameLimit != 64 || m.VM.StepBudget != 100000 {
		t.Errorf("vm = %+v", m.VM)
	}
	if m.Cache.Path != filepath.Join("build", "chunks.db") {
		t.Errorf("cache path = %q", m.Cache.Path)
	}
	if m.Dir == "" || !filepath.IsAbs(m.Dir) {
		t.Errorf("Dir = %q, want absolute", m.Dir)
	}
	if got := m.CachePath(); got != filepath.Join(m.Dir, "build", "chunks.db") {
		t.Errorf("CachePath = %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"bare\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Cache.Path != filepath.Join(".rill", "cache.db") {
		t.Errorf("default cache path = %q", m.Cache.Path)
	}
	if m.Bundle.Output != "bare.rlb" {
		t.Errorf("default bundle output = %q", m.Bundle.Output)
	}
	if m.VM.StackLimit != 0 || m.VM.StepBudget != 0 {
		t.Errorf("vm limits should default to zero, got %+v", m.VM)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of a directory without rill.toml should fail")
	}
}

func TestLoadRejectsBadToml(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project\nname =")
	if _, err := Load(dir); err == nil {
		t.Error("malformed toml should fail")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleToml)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("manifest not found from nested directory")
	}
	if m.Project.Name != "demo" {
		t.Errorf("project name = %q", m.Project.Name)
	}
}

func TestApplyConfiguresInterpreter(t *testing.T) {
	c := vm.NewChunk()
	top := c.NewLabel()
	c.Mark(top)
	c.Emit(vm.OpNop)
	c.EmitJump(vm.OpJump, top)

	m := &Manifest{VM: VMConfig{StepBudget: 50}}
	in := vm.NewInterp(c)
	m.Apply(in)

	if _, err := in.Run(); !errors.Is(err, vm.ErrStepBudgetExceeded) {
		t.Errorf("expected ErrStepBudgetExceeded, got %v", err)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no rill.toml exists")
	}
}
