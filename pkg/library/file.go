package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LoadFile reads the library saved at path. A missing file is an empty
// library.
func LoadFile(path string) (State, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("open library: %w", err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", path, err)
	}
	return FromDocument(doc), nil
}

// SaveFile writes s to path, replacing the previous file atomically.
func SaveFile(path string, s State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create library directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteDocument(tmp, s.Export(time.Now())); err != nil {
		tmp.Close()
		return fmt.Errorf("write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace library: %w", err)
	}
	return nil
}
