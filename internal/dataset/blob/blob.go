// Package blob stores raw uploaded files on an afero filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"

	"github.com/spf13/afero"
)

// Store writes raw uploads under a base directory.
type Store struct {
	fs   afero.Fs
	base string
}

// New returns a Store rooted at base. A nil fs means the OS filesystem.
func New(fs afero.Fs, base string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if base == "" {
		base = "uploads"
	}
	return &Store{fs: fs, base: base}
}

// PathFor returns the storage key for a dataset id.
func (s *Store) PathFor(id int64) string {
	return path.Join(s.base, strconv.FormatInt(id, 10)+".csv")
}

// Save writes content for id and returns its storage key.
func (s *Store) Save(ctx context.Context, id int64, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(s.base, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	p := s.PathFor(id)
	if err := afero.WriteFile(s.fs, p, content, 0o644); err != nil {
		return "", fmt.Errorf("write upload %s: %w", p, err)
	}

	return p, nil
}

// Open returns a reader for a stored key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fs.Open(key)
}

// Delete removes a stored key. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.fs.Remove(key)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", key, err)
	}
	return nil
}
