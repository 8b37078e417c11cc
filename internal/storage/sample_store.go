package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound indicates that a store has no object with that name
var ErrObjectNotFound = errors.New("object not found")

// SampleStore serves the bundled sample images by file name
type SampleStore interface {
	Name() string
	Open(ctx context.Context, fileName string) (io.ReadCloser, error)
}

type localStore struct {
	dir string
}

// NewLocalStore serves samples from a directory on disk
func NewLocalStore(dir string) (SampleStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("samples directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("samples directory %s is not a directory", dir)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Name() string {
	return "local"
}

func (s *localStore) Open(ctx context.Context, fileName string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return nil, fmt.Errorf("%w: invalid file name %q", ErrObjectNotFound, fileName)
	}
	f, err := os.Open(filepath.Join(s.dir, fileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, fileName)
	}
	return f, err
}
