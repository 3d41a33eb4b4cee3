package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-gridmem/internal/messaging"
)

// simBroker is what the simulator needs from the embedded NATS server.
type simBroker interface {
	messaging.Subscriber
	Ready() <-chan struct{}
}

// Simulator stands in for real worlds: each handle walks a square inside the
// sim room. Even handles answer in the readable form and odd ones packed, so
// both reply shapes are exercised.
type Simulator struct {
	broker     simBroker
	responders []*messaging.Responder
}

func NewSimulator(broker simBroker, handles []string) (*Simulator, error) {
	s := &Simulator{broker: broker}

	for i, h := range handles {
		r, err := messaging.NewResponder(h)
		if err != nil {
			return nil, err
		}

		mode := grid.ModeReadable
		if i%2 == 1 {
			mode = grid.ModeCompact
		}
		w := &walker{pos: grid.MustPosition(grid.SimRoom, uint8(10+i%30), 10)}
		if err := r.Handle(messaging.EntryPosition, func(context.Context) (any, error) {
			return w.step().Encode(mode), nil
		}); err != nil {
			return nil, err
		}
		s.responders = append(s.responders, r)
	}

	return s, nil
}

func (s *Simulator) Start(ctx context.Context) error {
	select {
	case <-s.broker.Ready():
	case <-ctx.Done():
		return nil
	}

	for _, r := range s.responders {
		unsub, err := r.Bind(ctx, s.broker)
		if err != nil {
			return fmt.Errorf("binding simulated world: %w", err)
		}
		defer unsub()
	}
	slog.InfoContext(ctx, "simulating worlds", "count", len(s.responders))

	<-ctx.Done()
	return nil
}

// walker moves clockwise around a 10x10 square.
type walker struct {
	mu    sync.Mutex
	pos   grid.Position
	moves int
}

var square = [4][2]int64{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

func (w *walker) step() grid.Position {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := square[(w.moves/9)%4]
	if next, err := w.pos.Offset(d[0], d[1]); err == nil {
		w.pos = next
	}
	w.moves++
	return w.pos
}
