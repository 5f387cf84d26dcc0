package dataset

import (
	"fmt"
	"os"
	"strings"
)

// Store is the append-only output file. A single writer owns it for the
// duration of a run; rows are never read back and a partial append after a
// crash is left as-is.
type Store struct {
	path string
}

// NewStore returns a store for path without touching the filesystem.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the output file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the output file is already on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Init creates the output file containing exactly one header row. An
// existing file is left untouched, so output from an earlier run never
// gains a second header. An empty header creates an empty file.
func (s *Store) Init(header []string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	defer f.Close()

	if len(header) == 0 {
		return nil
	}
	if _, err := f.WriteString(FormatRow(header) + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append writes each already-delimited line plus a newline to the end of
// the file, creating it if needed.
func (s *Store) Append(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", s.path, err)
	}
	return nil
}
