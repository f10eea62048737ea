// Package store persists the vault's durable state inside the vault
// directory: the encrypted index ("def") that is the sole source of truth
// for which secrets exist, and one encrypted record file per secret. All
// writes replace whole files through a write-then-rename so a crash leaves
// either the old or the new version, never a partial one. The package keeps
// no state between calls; a single writing session per vault directory is
// assumed and no cross-process locking is attempted.
package store

import (
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

const (
	indexFileName = "def"
	recordSuffix  = ".pwd"
)

// Store operates on one vault directory. The master key is an explicit
// parameter to every operation; the store never holds key material.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+recordSuffix)
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "create vault directory")
	}
	return nil
}

func (s *Store) writeFile(path string, data []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(path, data, 0o600); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "write "+filepath.Base(path))
	}
	return nil
}
