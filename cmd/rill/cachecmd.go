package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rill-lang/rill/cache"
	"github.com/rill-lang/rill/manifest"
	"github.com/rill-lang/rill/vm"
)

// cmdCache dispatches the cache subcommands: put, get, list, rm.
func cmdCache(args []string) error {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	db := fs.String("db", "", "Cache database path (default: manifest cache path or .rill/cache.db)")
	fs.Parse(args)
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("cache expects a subcommand: put, get, list, or rm")
	}

	store, err := openCache(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	switch rest[0] {
	case "put":
		if len(rest) != 3 {
			return fmt.Errorf("cache put expects a name and a chunk file")
		}
		chunk, err := loadChunk(rest[2])
		if err != nil {
			return err
		}
		h, err := store.Put(rest[1], chunk)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %x\n", rest[1], h[:8])
		return nil

	case "get":
		if len(rest) != 3 {
			return fmt.Errorf("cache get expects a name and an output file")
		}
		chunk, err := store.Get(rest[1])
		if err != nil {
			return err
		}
		data := vm.EncodeChunk(chunk)
		if err := os.WriteFile(rest[2], data, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", rest[2], err)
		}
		fmt.Printf("%s  %d bytes\n", rest[2], len(data))
		return nil

	case "list":
		infos, err := store.List()
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%-20s %6d bytes  %x\n", info.Name, info.Size, info.Hash[:8])
		}
		return nil

	case "rm":
		if len(rest) != 2 {
			return fmt.Errorf("cache rm expects a name")
		}
		return store.Delete(rest[1])

	default:
		return fmt.Errorf("unknown cache subcommand %q", rest[0])
	}
}

// openCache resolves the cache location: explicit -db flag, then the
// manifest in scope, then the default path.
func openCache(db string) (*cache.Store, error) {
	if db == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		m, err := manifest.FindAndLoad(wd)
		if err != nil {
			return nil, err
		}
		if m != nil {
			db = m.CachePath()
		} else {
			db = filepath.Join(".rill", "cache.db")
		}
	}
	if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", filepath.Dir(db), err)
	}
	return cache.Open(db)
}
