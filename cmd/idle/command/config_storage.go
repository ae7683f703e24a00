package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-idle/internal/game"
	"github.com/pixil98/go-idle/internal/storage"
)

const (
	BackendFile   = "file"
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
)

type StorageConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *StorageConfig) backend() string {
	if c.Backend == "" {
		return BackendFile
	}
	return c.Backend
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()

	switch c.backend() {
	case BackendFile, BackendSqlite:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the %s backend", c.backend()))
		}
	case BackendMemory:
	default:
		el.Add(fmt.Errorf("storage: unknown backend %q", c.Backend))
	}

	return el.Err()
}

// BuildStore opens the save store. The returned close func releases it.
func (c *StorageConfig) BuildStore() (storage.Storer[*game.SaveRecord], func() error, error) {
	noop := func() error { return nil }

	switch c.backend() {
	case BackendFile:
		s, err := storage.NewFileStore[*game.SaveRecord](c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating file store: %w", err)
		}
		return s, noop, nil
	case BackendSqlite:
		s, err := storage.OpenSqliteStore[*game.SaveRecord](c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil
	case BackendMemory:
		return storage.NewMemoryStore[*game.SaveRecord](), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}
