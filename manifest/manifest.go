// Package manifest handles rill.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/rill-lang/rill/vm"
)

// Manifest represents a rill.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	VM      VMConfig     `toml:"vm"`
	Cache   CacheConfig  `toml:"cache"`
	Bundle  BundleConfig `toml:"bundle"`

	// Dir is the directory containing the rill.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// VMConfig configures interpreter resource limits. Zero values fall back
// to the interpreter defaults.
type VMConfig struct {
	StackLimit int    `toml:"stack-limit"`
	FrameLimit int    `toml:"frame-limit"`
	StepBudget uint64 `toml:"step-budget"`
}

// CacheConfig configures the chunk cache location.
type CacheConfig struct {
	Path string `toml:"path"`
}

// BundleConfig configures bundle output.
type BundleConfig struct {
	Output string `toml:"output"`
}

// Load parses a rill.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "rill.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".rill", "cache.db")
	}
	if m.Bundle.Output == "" {
		m.Bundle.Output = m.Project.Name + ".rlb"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a rill.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "rill.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CachePath returns the absolute path to the configured cache database.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

// BundlePath returns the absolute path to the configured bundle output.
func (m *Manifest) BundlePath() string {
	if filepath.IsAbs(m.Bundle.Output) {
		return m.Bundle.Output
	}
	return filepath.Join(m.Dir, m.Bundle.Output)
}

// Apply configures an interpreter with the manifest's VM limits. Zero
// values leave the interpreter defaults in place.
func (m *Manifest) Apply(in *vm.Interp) {
	if m.VM.StackLimit > 0 {
		in.SetStackLimit(m.VM.StackLimit)
	}
	if m.VM.FrameLimit > 0 {
		in.SetFrameLimit(m.VM.FrameLimit)
	}
	if m.VM.StepBudget > 0 {
		in.SetStepBudget(m.VM.StepBudget)
	}
}
