package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-gridmem/internal/storage"
)

// Handler runs once per tick with exclusive access to the memory tree.
type Handler interface {
	Tick(context.Context, *Memory) error
}

type HandlerFunc func(context.Context, *Memory) error

func (f HandlerFunc) Tick(ctx context.Context, m *Memory) error {
	return f(ctx, m)
}

type ManagerOpt func(*Manager)

// WithReloads makes the manager reload its document from the store at the
// start of any tick after a signal arrives on ch.
func WithReloads(ch <-chan struct{}) ManagerOpt {
	return func(m *Manager) {
		m.reloads = ch
	}
}

// WithSeed sets the tree used when the store has no document yet.
func WithSeed(root storage.Value) ManagerOpt {
	return func(m *Manager) {
		m.seed = root
	}
}

// WithHandlers appends tick handlers.
func WithHandlers(h ...Handler) ManagerOpt {
	return func(m *Manager) {
		m.handlers = append(m.handlers, h...)
	}
}

// Manager owns one memory document. Each tick runs every handler against a
// working copy; a handler that fails has its writes rolled back. The copy is
// committed and saved at the end of the tick if anything changed.
type Manager struct {
	store    storage.Storer[*Document]
	id       string
	handlers []Handler
	reloads  <-chan struct{}
	seed     storage.Value

	root storage.Value
	mu   sync.Mutex
}

func NewManager(store storage.Storer[*Document], id string, opts ...ManagerOpt) (*Manager, error) {
	if err := storage.Identifier(id).Validate(); err != nil {
		return nil, fmt.Errorf("memory id: %w", err)
	}

	m := &Manager{
		store: store,
		id:    id,
		root:  storage.Map(),
	}

	for _, opt := range opts {
		opt(m)
	}

	doc := store.Get(id)
	switch {
	case doc != nil:
		m.root = doc.Root
	case !m.seed.IsAbsent():
		seed := &Document{Root: m.seed}
		if err := seed.Validate(); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		m.root = m.seed.Clone()
		slog.Info("seeding memory", "id", id, "keys", m.root.Len())
	default:
		slog.Info("starting with empty memory", "id", id)
	}

	return m, nil
}

// AddHandler registers h for subsequent ticks.
func (m *Manager) AddHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, h)
}

func (m *Manager) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.applyReload(ctx)

	working := m.root.Clone()
	dirty := false
	for i, h := range m.handlers {
		mem := newMemory(working.Clone())
		if err := h.Tick(ctx, mem); err != nil {
			slog.WarnContext(ctx, "memory handler failed, discarding its writes", "id", m.id, "handler", i, "error", err)
			continue
		}
		if mem.Dirty() {
			working = mem.root
			dirty = true
		}
	}

	if !dirty {
		return nil
	}

	if err := m.store.Save(m.id, &Document{Root: working}); err != nil {
		return fmt.Errorf("saving memory %s: %w", m.id, err)
	}
	m.root = working
	slog.DebugContext(ctx, "memory saved", "id", m.id)

	return nil
}

func (m *Manager) applyReload(ctx context.Context) {
	if m.reloads == nil {
		return
	}

	select {
	case <-m.reloads:
	default:
		return
	}

	if err := m.store.Reload(); err != nil {
		slog.WarnContext(ctx, "reloading memory failed, keeping current tree", "id", m.id, "error", err)
		return
	}

	doc := m.store.Get(m.id)
	if doc == nil {
		slog.WarnContext(ctx, "memory document disappeared, keeping current tree", "id", m.id)
		return
	}
	m.root = doc.Root
	slog.InfoContext(ctx, "memory reloaded", "id", m.id)
}

// Snapshot returns a deep copy of the committed tree.
func (m *Manager) Snapshot() storage.Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.root.Clone()
}
