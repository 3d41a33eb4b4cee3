package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridmem/internal/memory"
	"github.com/pixil98/go-gridmem/internal/storage"
	"github.com/pixil98/go-service"
)

const DefaultMemoryID = "main"

type BackendType int

const (
	BackendFile BackendType = iota
	BackendSQLite
)

func (bt *BackendType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file":
		*bt = BackendFile
	case "sqlite":
		*bt = BackendSQLite
	default:
		return fmt.Errorf("unknown storage backend: %s", text)
	}
	return nil
}

func (bt BackendType) String() string {
	switch bt {
	case BackendFile:
		return "file"
	case BackendSQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("backend(%d)", int(bt))
	}
}

type StorageConfig struct {
	Backend  BackendType `json:"backend"`
	Path     string      `json:"path"`
	MemoryID string      `json:"memory_id"`
	Watch    bool        `json:"watch"`
	// Seed is a YAML (or JSON) file holding the tree to start from when no
	// memory has been stored yet.
	Seed string `json:"seed,omitempty"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("storage path is required"))
	} else if c.Backend == BackendFile {
		info, err := os.Stat(c.Path)
		if err != nil {
			el.Add(fmt.Errorf("invalid storage path %q: %w", c.Path, err))
		} else if !info.IsDir() {
			el.Add(fmt.Errorf("storage path %q must be a directory for the file backend", c.Path))
		}
	}

	if c.MemoryID != "" {
		if err := storage.Identifier(c.MemoryID).Validate(); err != nil {
			el.Add(fmt.Errorf("memory_id: %w", err))
		}
	}

	if c.Watch && c.Backend != BackendFile {
		el.Add(fmt.Errorf("watch requires the file backend, got %s", c.Backend))
	}

	if c.Seed != "" {
		if _, err := os.Stat(c.Seed); err != nil {
			el.Add(fmt.Errorf("invalid seed %q: %w", c.Seed, err))
		}
	}

	return el.Err()
}

func (c *StorageConfig) memoryID() string {
	if c.MemoryID == "" {
		return DefaultMemoryID
	}
	return c.MemoryID
}

// buildStore opens the configured backend. The returned worker, if any,
// releases the backend on shutdown.
func (c *StorageConfig) buildStore() (storage.Storer[*memory.Document], service.Worker, error) {
	switch c.Backend {
	case BackendFile:
		st, err := storage.NewFileStore[*memory.Document](c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file store: %w", err)
		}
		return st, nil, nil
	case BackendSQLite:
		st, err := storage.NewSQLStore[*memory.Document](c.Path, "memory")
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return st, &closer{c: st}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %v", c.Backend)
	}
}

// buildWatcher watches the storage directory when enabled. Saves made by
// store itself are not reported as changes.
func (c *StorageConfig) buildWatcher(store storage.Storer[*memory.Document]) *storage.Watcher {
	if !c.Watch {
		return nil
	}
	var opts []storage.WatcherOpt
	if own, ok := store.(interface{ OwnWrite(string) bool }); ok {
		opts = append(opts, storage.WithIgnore(own.OwnWrite))
	}
	return storage.NewWatcher(c.Path, opts...)
}

func (c *StorageConfig) loadSeed() (storage.Value, error) {
	if c.Seed == "" {
		return storage.Value{}, nil
	}
	b, err := os.ReadFile(c.Seed)
	if err != nil {
		return storage.Value{}, fmt.Errorf("reading seed: %w", err)
	}
	v, err := storage.ParseYAML(b)
	if err != nil {
		return storage.Value{}, fmt.Errorf("parsing seed %s: %w", c.Seed, err)
	}
	return v, nil
}

// closer holds a resource open until the service stops.
type closer struct {
	c io.Closer
}

func (c *closer) Start(ctx context.Context) error {
	<-ctx.Done()
	return c.c.Close()
}
