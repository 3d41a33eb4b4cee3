package command

import (
	"context"
	"log/slog"

	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-gridmem/internal/memory"
	"github.com/pixil98/go-gridmem/internal/messaging"
	"github.com/pixil98/go-gridmem/internal/storage"
)

const (
	positionsKey = "positions"
	ticksPath    = "stats.ticks"
	failuresKey  = "stats.failures"
)

// Recorder stores the position of every world handle in memory each tick.
type Recorder struct {
	inv     messaging.Invoker
	handles []string
	mode    grid.Mode
}

func NewRecorder(inv messaging.Invoker, handles []string, mode grid.Mode) *Recorder {
	return &Recorder{
		inv:     inv,
		handles: handles,
		mode:    mode,
	}
}

func (r *Recorder) Tick(ctx context.Context, mem *memory.Memory) error {
	for _, h := range r.handles {
		pos, err := messaging.QueryPosition(ctx, r.inv, h)
		if err != nil {
			slog.WarnContext(ctx, "querying position", "handle", h, "error", err)
			n, _ := mem.Int(failuresKey + "." + h)
			if err := mem.Set(failuresKey+"."+h, storage.Int(int64(n+1))); err != nil {
				return err
			}
			continue
		}

		if err := mem.SetPosition(positionsKey+"."+h, pos, r.mode); err != nil {
			return err
		}
	}

	n, _ := mem.Int(ticksPath)
	return mem.Set(ticksPath, storage.Int(int64(n+1)))
}
