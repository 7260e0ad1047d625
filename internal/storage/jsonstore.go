// Package storage implements the durable snapshot contract used in
// local mode: one JSON file per entity collection, replaced atomically
// on every mutating operation. Writers across processes are serialized
// with an exclusive advisory lock, so a read-modify-write cycle never
// observes or produces a partial state.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Store reads and writes per-collection JSON snapshots under a
// data directory.
type Store struct {
	dir string
}

// NewStore creates the data directory if needed and returns a store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the full collection into v. A missing or empty file means
// an empty collection and leaves v untouched.
func (s *Store) Load(collection string, v any) error {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", collection, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

// Persist atomically replaces the collection file with the encoded v.
// The write goes to a temp file in the same directory, then renames
// over the target, so readers never see a partial file.
func (s *Store) Persist(collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", collection, err)
	}
	return nil
}

// WithLock runs fn while holding an exclusive lock on the collection.
// Mutating operations wrap their load-modify-persist cycle in this.
func (s *Store) WithLock(collection string, fn func() error) error {
	lockPath := filepath.Join(s.dir, collection+".lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock for %s: %w", collection, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", collection, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn()
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}
