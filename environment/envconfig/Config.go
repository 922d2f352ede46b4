// Package envconfig provides configuration structs for configuring
// maze environments with their default layouts and tasks.
// Environment configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"
	"math/rand/v2"

	"github.com/samuelfneumann/mazeper/environment/maze"
	ts "github.com/samuelfneumann/mazeper/timestep"
)

// Variant names a combination of maze and task that can be
// configured with this package. The variants are as follows:
//
//	Variant		Maze					Task
//	Plain		preset layout			maze.Explore
//	PER			generated, no key		maze.Approach
//	Key			generated, with key		maze.KeyGate
type Variant string

// Variants available for configuration
const (
	Plain Variant = "plain"
	PER   Variant = "per"
	Key   Variant = "key"
)

// Config implements a specific configuration of a maze environment
type Config struct {
	Variant Variant

	// Layout names a preset layout. If empty, a Size x Size maze is
	// generated instead.
	Layout string
	Size   int

	EpisodeCutoff uint
	Discount      float64
}

// DefaultConfig returns the default Config of a variant
func DefaultConfig(v Variant) (Config, error) {
	switch v {
	case Plain:
		return Config{Variant: Plain, Layout: maze.Simple, EpisodeCutoff: 1000,
			Discount: 0.9}, nil

	case PER:
		return Config{Variant: PER, Size: 10, EpisodeCutoff: 100,
			Discount: 0.95}, nil

	case Key:
		return Config{Variant: Key, Size: 10, EpisodeCutoff: 400,
			Discount: 0.95}, nil
	}

	return Config{}, fmt.Errorf("defaultConfig: no such variant %q", v)
}

// Validate checks that the Config describes a valid environment
func (c Config) Validate() error {
	switch c.Variant {
	case Plain, PER, Key:
	default:
		return fmt.Errorf("validate: no such variant %q", c.Variant)
	}

	if c.EpisodeCutoff == 0 {
		return fmt.Errorf("validate: episode cutoff must be > 0")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1]")
	}
	if c.Layout == "" && c.Size < 2 {
		return fmt.Errorf("validate: generated mazes need size >= 2, have %d",
			c.Size)
	}
	return nil
}

// NewLayout returns the maze layout described by the Config. Generated
// layouts are drawn using seed.
func (c Config) NewLayout(seed uint64) (*maze.Layout, maze.Stats, error) {
	if c.Layout != "" {
		l, err := maze.Preset(c.Layout)
		if err != nil {
			return nil, maze.Stats{}, fmt.Errorf("newLayout: %w", err)
		}
		if c.Variant == Key && !l.Keyed() {
			return nil, maze.Stats{}, fmt.Errorf("newLayout: the %v variant "+
				"needs a keyed layout, %q has no key", Key, c.Layout)
		}
		return l, maze.Stats{Solvable: l.Solvable()}, nil
	}

	rng := rand.New(rand.NewPCG(seed, seed+1))
	return maze.Generate(c.Size, c.Variant == Key, rng)
}

// Task returns a new Task for the Config's variant
func (c Config) Task() (maze.Task, error) {
	cutoff := int(c.EpisodeCutoff)

	switch c.Variant {
	case Plain:
		return maze.NewExplore(cutoff), nil

	case PER:
		return maze.NewApproach(cutoff), nil

	case Key:
		return maze.NewKeyGate(cutoff), nil
	}

	return nil, fmt.Errorf("task: no such variant %q", c.Variant)
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment and statistics describing how
// its layout was built.
func (c Config) Create(seed uint64) (*maze.Maze, ts.TimeStep, maze.Stats,
	error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, maze.Stats{}, fmt.Errorf("create: %w", err)
	}

	layout, stats, err := c.NewLayout(seed)
	if err != nil {
		return nil, ts.TimeStep{}, maze.Stats{}, fmt.Errorf("create: %w", err)
	}

	task, err := c.Task()
	if err != nil {
		return nil, ts.TimeStep{}, maze.Stats{}, fmt.Errorf("create: %w", err)
	}

	m, step, err := maze.New(task, layout, c.Discount)
	if err != nil {
		return nil, ts.TimeStep{}, maze.Stats{}, fmt.Errorf("create: %w", err)
	}
	return m, step, stats, nil
}
