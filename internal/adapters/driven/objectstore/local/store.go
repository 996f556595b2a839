// Package local stages document bytes in a directory on disk.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.ObjectStore = (*Store)(nil)

// Store keeps staged objects under Dir.
type Store struct {
	dir string
}

// New creates the directory if needed. An empty dir means ~/.intake/staging.
func New(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".intake", "staging")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the staging root.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves key inside the staging root. Keys that escape it are rejected.
func (s *Store) Path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: staging key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir, clean), nil
}

// Put writes r to key, replacing any previous object, and returns its path.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("creating staging subdirectory: %w", err)
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".staging-*")
	if err != nil {
		return "", fmt.Errorf("creating staging file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing staging file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("moving staging file: %w", err)
	}
	return path, nil
}

// Open returns a reader for key.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: staged object %s", domain.ErrNotFound, key)
	}
	return f, err
}

// Delete removes key and an enhanced sibling if present. Missing keys are ignored.
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	for _, p := range []string{path, EnhancedPath(path)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting staged object: %w", err)
		}
	}
	return nil
}

// EnhancedPath is where the enhancer writes its output for path.
func EnhancedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".enhanced.png"
}
