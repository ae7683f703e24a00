package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Load when no record exists for the id.
var ErrNotFound = errors.New("record not found")

// Storer persists validated records under a string key.
type Storer[T ValidatingSpec] interface {
	Save(ctx context.Context, id Identifier, v T) error
	Load(ctx context.Context, id Identifier) (T, error)
}

// FileStore keeps one JSON file per record inside a directory.
type FileStore[T ValidatingSpec] struct {
	path string

	mu sync.Mutex
}

func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	return &FileStore[T]{path: path}, nil
}

func (s *FileStore[T]) Save(ctx context.Context, id Identifier, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeAsset(id, v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return atomicWrite(s.filePath(id), data, 0o644)
}

func (s *FileStore[T]) Load(ctx context.Context, id Identifier) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := id.Validate(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.filePath(id))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("reading file: %w", err)
	}

	return decodeAsset[T](id, data)
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (s *FileStore[T]) filePath(id Identifier) string {
	return filepath.Join(s.path, fmt.Sprintf("%s.json", id))
}
