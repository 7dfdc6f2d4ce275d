// Package cache persists encoded chunks in a local SQLite database.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rill-lang/rill/vm"
)

// ErrNotFound indicates the requested chunk doesn't exist.
var ErrNotFound = errors.New("chunk not found")

var log = commonlog.GetLogger("rill.cache")

// Store is a persistent chunk cache. Rows hold the chunk's wire encoding
// together with its SHA-256, so both the stored hash and the encoding's
// own checksum guard reads.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Info describes one cached chunk.
type Info struct {
	Name string
	Hash [32]byte
	Size int
}

// Open opens or creates a cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		name TEXT PRIMARY KEY,
		hash BLOB NOT NULL,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes and stores a chunk under the given name, replacing any
// previous entry, and returns the content hash.
func (s *Store) Put(name string, c *vm.Chunk) ([32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := vm.EncodeChunk(c)
	h := sha256.Sum256(data)

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO chunks (name, hash, data) VALUES (?, ?, ?)",
		name, h[:], data,
	)
	if err != nil {
		return [32]byte{}, fmt.Errorf("storing chunk %q: %w", name, err)
	}
	log.Debugf("cached %q (%d bytes)", name, len(data))
	return h, nil
}

// Get loads and decodes the chunk stored under the given name. The
// stored hash is re-checked before decoding, so a damaged row surfaces
// as an error rather than as a chunk.
func (s *Store) Get(name string) (*vm.Chunk, error) {
	var hash, data []byte
	err := s.db.QueryRow("SELECT hash, data FROM chunks WHERE name = ?", name).Scan(&hash, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("querying chunk %q: %w", name, err)
	}

	if computed := sha256.Sum256(data); !bytesEqual32(computed, hash) {
		return nil, fmt.Errorf("chunk %q: stored hash mismatch", name)
	}

	c, err := vm.DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("chunk %q: %w", name, err)
	}
	return c, nil
}

// Delete removes the chunk stored under the given name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM chunks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting chunk %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// List returns info for every cached chunk, ordered by name.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.Query("SELECT name, hash, length(data) FROM chunks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info Info
			hash []byte
		)
		if err := rows.Scan(&info.Name, &hash, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		copy(info.Hash[:], hash)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func bytesEqual32(a [32]byte, b []byte) bool {
	return len(b) == 32 && a == [32]byte(b)
}
