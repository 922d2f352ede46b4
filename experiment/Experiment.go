// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/environment/envconfig"
	"github.com/samuelfneumann/mazeper/environment/maze"
	"github.com/samuelfneumann/mazeper/experiment/tracker"
	"github.com/samuelfneumann/mazeper/expreplay"
)

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to Trackers, which cache the data to
// be saved to disk later by Save. Run runs all episodes of the
// experiment and RunEpisode runs a single episode.
type Experiment interface {
	Run(ctx context.Context) (Summary, error)
	RunEpisode() (Episode, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}

// Objective determines which successful episode's path is the best
type Objective string

const (
	// Shortest keeps the successful path with the fewest steps
	Shortest Objective = "shortest"

	// HighestReturn keeps the successful path with the highest return
	HighestReturn Objective = "return"
)

// Config represents a configuration of an experiment.
type Config struct {
	Episodes  int
	LogEvery  int
	Objective Objective

	EnvConf    envconfig.Config
	AgentConf  agent.TypedConfig
	ReplayConf expreplay.Config
}

// Validate checks that the Config describes a runnable experiment
func (c Config) Validate() error {
	if c.Episodes <= 0 {
		return fmt.Errorf("validate: episodes must be > 0")
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("validate: log interval must be >= 0")
	}
	switch c.Objective {
	case Shortest, HighestReturn, "":
	default:
		return fmt.Errorf("validate: unknown objective %q", c.Objective)
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: no agent configured")
	}

	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.AgentConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.ReplayConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// CreateExp creates the environment, agent and replay buffer that the
// Config describes, all seeded by seed, and returns an Online
// experiment running them. It also returns the statistics of how the
// maze layout was built.
func (c Config) CreateExp(seed uint64, logger zerolog.Logger,
	t ...tracker.Tracker) (*Online, maze.Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, maze.Stats{}, fmt.Errorf("createExp: %w", err)
	}

	buffer, err := c.ReplayConf.Create(seed)
	if err != nil {
		return nil, maze.Stats{}, fmt.Errorf("createExp: could not create "+
			"replay buffer: %w", err)
	}

	return c.createExp(seed, buffer, logger, t...)
}

// SharedBuffer creates a replay buffer which the experiments of several
// trials may fill and sample concurrently. Pass it to
// CreateExpWithBuffer.
func (c Config) SharedBuffer(seed uint64) (*expreplay.Synchronized, error) {
	if c.ReplayConf.Kind != expreplay.PrioritizedKind {
		return nil, fmt.Errorf("sharedBuffer: cannot share a %q buffer",
			c.ReplayConf.Kind)
	}

	buffer, err := c.ReplayConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("sharedBuffer: %w", err)
	}
	return expreplay.NewSynchronized(buffer), nil
}

// CreateExpWithBuffer is like CreateExp, but the experiment stores and
// samples transitions in buffer instead of a buffer of its own
func (c Config) CreateExpWithBuffer(seed uint64,
	buffer expreplay.ExperienceReplayer, logger zerolog.Logger,
	t ...tracker.Tracker) (*Online, maze.Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, maze.Stats{}, fmt.Errorf("createExpWithBuffer: %w", err)
	}
	if buffer == nil {
		return nil, maze.Stats{}, fmt.Errorf("createExpWithBuffer: nil " +
			"buffer")
	}

	return c.createExp(seed, buffer, logger, t...)
}

func (c Config) createExp(seed uint64, buffer expreplay.ExperienceReplayer,
	logger zerolog.Logger, t ...tracker.Tracker) (*Online, maze.Stats,
	error) {
	env, _, stats, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, maze.Stats{}, fmt.Errorf("createExp: could not create "+
			"environment: %w", err)
	}

	a, err := c.AgentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, maze.Stats{}, fmt.Errorf("createExp: could not create "+
			"agent: %w", err)
	}

	o := NewOnline(env, a, buffer, c.Episodes, t...)
	o.SetBatch(c.ReplayConf.BatchSize, c.ReplayConf.MinSamples)
	o.SetObjective(c.Objective)
	o.SetLogger(logger, c.LogEvery)
	return o, stats, nil
}
