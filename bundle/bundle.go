// Package bundle packages compiled chunks into transportable artifacts.
package bundle

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/rill-lang/rill/vm"
)

// Entry is one named chunk inside a bundle. Data holds the chunk in its
// wire encoding; Hash is the SHA-256 of Data and is verified whenever a
// bundle crosses a trust boundary.
type Entry struct {
	Name string
	Hash [32]byte
	Data []byte
}

// Chunk decodes the entry back into a chunk.
func (e *Entry) Chunk() (*vm.Chunk, error) {
	c, err := vm.DecodeChunk(e.Data)
	if err != nil {
		return nil, fmt.Errorf("bundle: entry %q: %w", e.Name, err)
	}
	return c, nil
}

// Bundle is a set of named chunks under a single identifier. Entries are
// kept sorted by name so the encoded form is deterministic.
type Bundle struct {
	ID      string
	Name    string
	Entries []Entry
}

// New creates an empty bundle with a fresh identifier.
func New(name string) *Bundle {
	return &Bundle{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// Add encodes a chunk and appends it under the given name. Entry names
// are unique within a bundle.
func (b *Bundle) Add(name string, c *vm.Chunk) error {
	if _, ok := b.Lookup(name); ok {
		return fmt.Errorf("bundle: duplicate entry %q", name)
	}

	data := vm.EncodeChunk(c)
	b.Entries = append(b.Entries, Entry{
		Name: name,
		Hash: sha256.Sum256(data),
		Data: data,
	})
	sort.Slice(b.Entries, func(i, j int) bool {
		return b.Entries[i].Name < b.Entries[j].Name
	})
	return nil
}

// Lookup returns the entry with the given name.
func (b *Bundle) Lookup(name string) (*Entry, bool) {
	for i := range b.Entries {
		if b.Entries[i].Name == name {
			return &b.Entries[i], true
		}
	}
	return nil, false
}

// Verify checks every entry's declared hash against its data.
func (b *Bundle) Verify() error {
	for i := range b.Entries {
		e := &b.Entries[i]
		if computed := sha256.Sum256(e.Data); computed != e.Hash {
			return fmt.Errorf("bundle: entry %q hash mismatch: declared %x, computed %x",
				e.Name, e.Hash, computed)
		}
	}
	return nil
}
