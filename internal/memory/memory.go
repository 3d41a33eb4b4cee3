package memory

import (
	"fmt"

	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-gridmem/internal/storage"
)

// Memory is a handler's view of the tree for one tick. Paths are dotted
// strings as accepted by storage.ParsePath.
type Memory struct {
	root  storage.Value
	dirty bool
}

func newMemory(root storage.Value) *Memory {
	return &Memory{root: root}
}

// Get returns the value at path. An unparseable path is simply not found.
func (m *Memory) Get(path string) (storage.Value, bool) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return storage.Value{}, false
	}
	return storage.Lookup(m.root, p)
}

func (m *Memory) Set(path string, v storage.Value) error {
	p, err := storage.ParsePath(path)
	if err != nil {
		return fmt.Errorf("setting %q: %w", path, err)
	}
	storage.Set(&m.root, p, v)
	m.dirty = true
	return nil
}

func (m *Memory) Delete(path string) (bool, error) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return false, fmt.Errorf("deleting %q: %w", path, err)
	}
	removed := storage.Delete(&m.root, p)
	if removed {
		m.dirty = true
	}
	return removed, nil
}

func (m *Memory) Int(path string) (int, bool) {
	return get[int](m, path)
}

func (m *Memory) String(path string) (string, bool) {
	return get[string](m, path)
}

// Position reads a position stored in either the readable or the compact
// form.
func (m *Memory) Position(path string) (grid.Position, bool) {
	return get[grid.Position](m, path)
}

// SetPosition stores pos at path in the given form.
func (m *Memory) SetPosition(path string, pos grid.Position, mode grid.Mode) error {
	v, err := storage.Marshal(pos.Encode(mode))
	if err != nil {
		return fmt.Errorf("encoding position: %w", err)
	}
	return m.Set(path, v)
}

// Dirty reports whether the tree was written this tick.
func (m *Memory) Dirty() bool {
	return m.dirty
}

func get[T any](m *Memory, path string) (T, bool) {
	p, err := storage.ParsePath(path)
	if err != nil {
		var zero T
		return zero, false
	}
	return storage.Get[T](m.root, p)
}
