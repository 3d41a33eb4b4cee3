package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
)

// Manager is anything that advances once per tick.
type Manager interface {
	Tick(context.Context) error
}

// Driver ticks its managers in order on a fixed interval. A manager error
// stops the driver.
type Driver struct {
	tickLength time.Duration
	managers   []Manager
	tick       uint64
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "driver started", "tick_length", d.tickLength, "managers", len(d.managers))

	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *Driver) Tick(ctx context.Context) error {
	d.tick++
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "tick failed", "tick", d.tick, "error", err)
			return err
		}
	}
	return nil
}

// Ticks is the number of ticks started so far.
func (d *Driver) Ticks() uint64 {
	return d.tick
}
