package bundle

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/rill-lang/rill/vm"
)

// ---------------------------------------------------------------------------
// Store: content-addressed index of encoded chunks
// ---------------------------------------------------------------------------

// Store indexes encoded chunks by their content hash. It is safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks map[[32]byte][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		chunks: make(map[[32]byte][]byte),
	}
}

// Put encodes a chunk, indexes it, and returns its content hash. Storing
// the same chunk twice is a no-op yielding the same hash.
func (s *Store) Put(c *vm.Chunk) [32]byte {
	data := vm.EncodeChunk(c)
	h := sha256.Sum256(data)
	s.mu.Lock()
	s.chunks[h] = data
	s.mu.Unlock()
	return h
}

// Get decodes and returns the chunk for the given hash.
func (s *Store) Get(h [32]byte) (*vm.Chunk, error) {
	s.mu.RLock()
	data, ok := s.chunks[h]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bundle: no chunk with hash %x", h)
	}
	return vm.DecodeChunk(data)
}

// Has reports whether the store contains a chunk with the given hash.
func (s *Store) Has(h [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[h]
	return ok
}

// Hashes returns all content hashes in the store.
func (s *Store) Hashes() [][32]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes := make([][32]byte, 0, len(s.chunks))
	for h := range s.chunks {
		hashes = append(hashes, h)
	}
	return hashes
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Import verifies a bundle and indexes every entry. It returns the
// entries' hashes in entry order.
func (s *Store) Import(b *Bundle) ([][32]byte, error) {
	if err := b.Verify(); err != nil {
		return nil, err
	}
	hashes := make([][32]byte, 0, len(b.Entries))
	s.mu.Lock()
	for _, e := range b.Entries {
		data := make([]byte, len(e.Data))
		copy(data, e.Data)
		s.chunks[e.Hash] = data
		hashes = append(hashes, e.Hash)
	}
	s.mu.Unlock()
	return hashes, nil
}
