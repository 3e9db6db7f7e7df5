package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/mudsync/internal/driver"
)

type Config struct {
	Listeners []ListenerConfig `json:"listeners"`
	Nats      NatsConfig       `json:"nats"`
	Storage   StorageConfig    `json:"storage"`
	World     WorldConfig      `json:"world"`
	Metrics   MetricsConfig    `json:"metrics"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Nats.validate())
	el.Add(c.Storage.validate())
	el.Add(c.World.validate())

	return el.Err()
}

type WorldConfig struct {
	// Assets, when set, are seeded into the durable store at startup.
	Assets         *AssetsConfig `json:"assets,omitempty"`
	OutboundBuffer int           `json:"outbound_buffer"`
	// CheckpointInterval is how often live sessions are written back to the durable store.
	CheckpointInterval string `json:"checkpoint_interval,omitempty"`
}

type AssetsConfig struct {
	Rooms   string `json:"rooms"`
	Items   string `json:"items"`
	Players string `json:"players"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.OutboundBuffer < 0 {
		el.Add(fmt.Errorf("outbound_buffer cannot be negative"))
	}
	if _, err := c.checkpointInterval(); err != nil {
		el.Add(err)
	}
	if c.Assets != nil {
		if c.Assets.Rooms == "" {
			el.Add(fmt.Errorf("assets.rooms is required"))
		}
		if c.Assets.Items == "" {
			el.Add(fmt.Errorf("assets.items is required"))
		}
		if c.Assets.Players == "" {
			el.Add(fmt.Errorf("assets.players is required"))
		}
	}

	return el.Err()
}

func (c *WorldConfig) checkpointInterval() (time.Duration, error) {
	if c.CheckpointInterval == "" {
		return driver.DefaultTickLength, nil
	}
	d, err := time.ParseDuration(c.CheckpointInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing checkpoint_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("checkpoint_interval must be positive")
	}
	return d, nil
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}
