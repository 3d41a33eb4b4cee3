package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-gridmem/internal/messaging"
)

type WorldConfig struct {
	Handles        []string  `json:"handles"`
	PositionMode   grid.Mode `json:"position_mode"`
	RequestTimeout string    `json:"request_timeout"`
	// Simulate answers position queries for every handle in-process.
	Simulate bool `json:"simulate"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if len(c.Handles) == 0 {
		el.Add(fmt.Errorf("world handles are required"))
	}

	seen := map[string]bool{}
	for i, h := range c.Handles {
		if _, err := messaging.Subject(h, messaging.EntryPosition); err != nil {
			el.Add(fmt.Errorf("world handle %d: %w", i, err))
			continue
		}
		// Handles become memory keys; a numeric key would address a list.
		if _, err := strconv.Atoi(h); err == nil {
			el.Add(fmt.Errorf("world handle %d: %q must not be numeric", i, h))
		}
		if seen[h] {
			el.Add(fmt.Errorf("world handle %q listed twice", h))
		}
		seen[h] = true
	}

	if c.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
			el.Add(fmt.Errorf("parsing request_timeout: %w", err))
		}
	}

	return el.Err()
}

func (c *WorldConfig) buildInvoker(req messaging.Requester) *messaging.NatsInvoker {
	var opts []messaging.InvokerOpt
	if c.RequestTimeout != "" {
		if d, err := time.ParseDuration(c.RequestTimeout); err == nil {
			opts = append(opts, messaging.WithRequestTimeout(d))
		}
	}
	return messaging.NewNatsInvoker(req, opts...)
}
