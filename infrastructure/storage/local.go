package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// dirPerm is used for every directory the tool creates
const dirPerm fs.FileMode = 0o755

// LocalStorage implements ports.StorageProvider on the local filesystem.
// Output files are staged next to their destination and renamed into place.
type LocalStorage struct{}

// NewLocalStorage creates a new local storage provider
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// Exists reports whether path exists. Only a missing file yields false
// without an error.
func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	switch _, err := os.Stat(path); {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Size returns the size in bytes of a written output
func (s *LocalStorage) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, &fs.PathError{Op: "size", Path: path, Err: errors.New("is a directory")}
	}
	return info.Size(), nil
}

// Remove deletes a staged or produced file
func (s *LocalStorage) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

// TempFile creates an empty staging file in dir (the system temp dir when
// empty) and returns its absolute path. The file is closed on return.
func (s *LocalStorage) TempFile(_ context.Context, dir, pattern string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", multierr.Append(err, os.Remove(f.Name()))
	}
	return filepath.Abs(f.Name())
}

// Rename moves a file into place. Both paths must be on the same filesystem
// for the move to be atomic.
func (s *LocalStorage) Rename(_ context.Context, from, to string) error {
	return os.Rename(from, to)
}

// MkdirAll ensures a directory exists
func (s *LocalStorage) MkdirAll(_ context.Context, dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, dirPerm)
}

// Newest returns the most recently modified file in dir matching pattern,
// or "" when nothing matches.
func (s *LocalStorage) Newest(_ context.Context, dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}

	var (
		newest  string
		newestT int64
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if t := info.ModTime().UnixNano(); newest == "" || t > newestT {
			newest, newestT = m, t
		}
	}
	return newest, nil
}
