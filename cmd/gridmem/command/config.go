package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const MinTickInterval = 100 * time.Millisecond

type Config struct {
	TickInterval string        `json:"tick_interval"`
	Storage      StorageConfig `json:"storage"`
	Nats         NatsConfig    `json:"nats"`
	World        WorldConfig   `json:"world"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < MinTickInterval {
		el.Add(fmt.Errorf("tick_interval must be at least %s", MinTickInterval))
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.World.validate())

	return el.Err()
}

func (c *Config) tickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return MinTickInterval
	}
	return max(d, MinTickInterval)
}
