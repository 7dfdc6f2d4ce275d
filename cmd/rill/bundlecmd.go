package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rill-lang/rill/bundle"
)

// cmdBundle dispatches the bundle subcommands: pack, unpack, list.
func cmdBundle(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("bundle expects a subcommand: pack, unpack, or list")
	}
	switch args[0] {
	case "pack":
		return bundlePack(args[1:])
	case "unpack":
		return bundleUnpack(args[1:])
	case "list":
		return bundleList(args[1:])
	default:
		return fmt.Errorf("unknown bundle subcommand %q", args[0])
	}
}

// bundlePack builds a bundle from name=file pairs and writes it out.
func bundlePack(args []string) error {
	fs := flag.NewFlagSet("bundle pack", flag.ExitOnError)
	out := fs.String("o", "out.rlb", "Output bundle file")
	name := fs.String("name", "", "Bundle name (default: output file stem)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("bundle pack expects name=chunkfile arguments")
	}

	bundleName := *name
	if bundleName == "" {
		bundleName = strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	}
	b := bundle.New(bundleName)

	for _, arg := range fs.Args() {
		entryName, path, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("bad entry %q, want name=chunkfile", arg)
		}
		chunk, err := loadChunk(path)
		if err != nil {
			return err
		}
		if err := b.Add(entryName, chunk); err != nil {
			return err
		}
	}

	data, err := bundle.Marshal(b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", *out, err)
	}
	log.Infof("packed %d entries into %s (%d bytes)", len(b.Entries), *out, len(data))
	return nil
}

// bundleUnpack writes each verified entry of a bundle as its own file.
func bundleUnpack(args []string) error {
	fs := flag.NewFlagSet("bundle unpack", flag.ExitOnError)
	dir := fs.String("d", ".", "Output directory")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("bundle unpack expects exactly one bundle file")
	}

	b, err := loadBundle(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", *dir, err)
	}

	for _, e := range b.Entries {
		path := filepath.Join(*dir, e.Name+".rlc")
		if err := os.WriteFile(path, e.Data, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
		fmt.Printf("%s  %x\n", path, e.Hash[:8])
	}
	return nil
}

// bundleList prints a bundle's identity and entries.
func bundleList(args []string) error {
	fs := flag.NewFlagSet("bundle list", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("bundle list expects exactly one bundle file")
	}

	b, err := loadBundle(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("bundle %s (%s), %d entries\n", b.Name, b.ID, len(b.Entries))
	for _, e := range b.Entries {
		fmt.Printf("  %-20s %6d bytes  %x\n", e.Name, len(e.Data), e.Hash[:8])
	}
	return nil
}

// loadBundle reads, unmarshals, and verifies one bundle file.
func loadBundle(path string) (*bundle.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	b, err := bundle.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
