package command

import (
	"fmt"

	"github.com/pixil98/go-gridmem/internal/driver"
	"github.com/pixil98/go-gridmem/internal/memory"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	store, storeCloser, err := cfg.Storage.buildStore()
	if err != nil {
		return nil, err
	}

	ns, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	seed, err := cfg.Storage.loadSeed()
	if err != nil {
		return nil, err
	}

	recorder := NewRecorder(cfg.World.buildInvoker(ns), cfg.World.Handles, cfg.World.PositionMode)
	opts := []memory.ManagerOpt{
		memory.WithHandlers(recorder),
		memory.WithSeed(seed),
	}

	workers := service.WorkerList{
		"nats": ns,
	}

	if w := cfg.Storage.buildWatcher(store); w != nil {
		opts = append(opts, memory.WithReloads(w.Changes()))
		workers["watcher"] = w
	}
	if storeCloser != nil {
		workers["store"] = storeCloser
	}

	if cfg.World.Simulate {
		sim, err := NewSimulator(ns, cfg.World.Handles)
		if err != nil {
			return nil, fmt.Errorf("creating simulator: %w", err)
		}
		workers["simulator"] = sim
	}

	mgr, err := memory.NewManager(store, cfg.Storage.memoryID(), opts...)
	if err != nil {
		return nil, fmt.Errorf("creating memory manager: %w", err)
	}

	workers["driver"] = driver.NewDriver([]driver.Manager{mgr}, driver.WithTickLength(cfg.tickInterval()))

	return workers, nil
}
