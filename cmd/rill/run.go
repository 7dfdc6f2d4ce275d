package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rill-lang/rill/manifest"
	"github.com/rill-lang/rill/vm"
)

// cmdRun loads a chunk, applies manifest limits if a rill.toml is in
// scope, executes it, and exits with the i64 result when there is one.
func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Int("v", 0, "Log verbosity")
	budget := fs.Uint64("budget", 0, "Step budget (overrides the manifest, 0 = keep)")
	stackLimit := fs.Int("stack-limit", 0, "Operand stack limit (overrides the manifest, 0 = keep)")
	noManifest := fs.Bool("no-manifest", false, "Ignore any rill.toml")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("run expects exactly one chunk file")
	}
	configureLogging(*verbose)
	path := fs.Arg(0)

	chunk, err := loadChunk(path)
	if err != nil {
		return err
	}

	in := vm.NewInterp(chunk)

	if !*noManifest {
		m, err := manifest.FindAndLoad(filepath.Dir(path))
		if err != nil {
			return err
		}
		if m != nil {
			m.Apply(in)
			log.Infof("applied limits from %s", filepath.Join(m.Dir, "rill.toml"))
		}
	}
	if *budget > 0 {
		in.SetStepBudget(*budget)
	}
	if *stackLimit > 0 {
		in.SetStackLimit(*stackLimit)
	}

	result, err := in.Run()
	if err != nil {
		return fmt.Errorf("%s: %w (after %d steps)", path, err, in.Steps())
	}
	log.Infof("halted after %d steps", in.Steps())

	// An i64 result is the process exit code, like a main function's.
	if result.Kind() == vm.KindI64 {
		os.Exit(int(result.AsI64()))
	}
	return nil
}

// loadChunk reads and decodes one chunk file.
func loadChunk(path string) (*vm.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	chunk, err := vm.DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chunk, nil
}
