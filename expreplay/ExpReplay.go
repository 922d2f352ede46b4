// Package expreplay implements experience replay buffers for tabular
// agents. The main buffer, Prioritized, samples transitions in
// proportion to their priorities using a sum-tree, and can penalize
// the rewards of transitions out of frequently visited states.
package expreplay

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/mazeper/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t ts.Transition) error

	// Sample samples a batch of experience from the buffer. It returns
	// the indices of the sampled transitions, the transitions, and
	// their importance-sampling weights.
	Sample(batchSize int) ([]int, []ts.Transition, []float64, error)

	// UpdatePriorities sets the priorities of previously sampled
	// transitions
	UpdatePriorities(indices []int, priorities []float64) error

	// Len returns the current number of samples in the buffer
	Len() int

	// Capacity returns the maximum allowable samples in the buffer
	Capacity() int
}

// Kind determines which ExperienceReplayer a Config creates
type Kind string

const (
	PrioritizedKind Kind = "Prioritized"
	OnlineKind      Kind = "Online"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	Kind     Kind
	Capacity int
	Alpha    float64
	Beta     float64

	// BatchSize is the number of transitions sampled per update and
	// MinSamples the number stored before updates begin
	BatchSize  int
	MinSamples int

	Sampling SelectorType

	// Decaying enables the visitation penalty
	Decaying         bool
	VisitPenalty     float64
	VisitDecay       float64
	MaxVisitedStates int

	// VisitKeyDims is the number of leading state components that
	// identify a state in the visitation table, 0 for all of them
	VisitKeyDims int
}

// DefaultConfig returns the prioritized configuration used by the
// PER and key agents
func DefaultConfig() Config {
	return Config{
		Kind:         PrioritizedKind,
		Capacity:     10_000,
		Alpha:        DefaultAlpha,
		Beta:         DefaultBeta,
		BatchSize:    32,
		MinSamples:   32,
		Sampling:     Stratified,
		Decaying:     true,
		VisitPenalty: DefaultVisitPenalty,
		VisitDecay:   DefaultVisitDecay,
	}
}

// OnlineConfig returns a Config which learns from each transition as
// it arrives
func OnlineConfig() Config {
	return Config{
		Kind:       OnlineKind,
		Capacity:   1,
		BatchSize:  1,
		MinSamples: 1,
	}
}

// Validate checks that the Config is consistent
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be > 0")
	}
	if c.MinSamples < c.BatchSize {
		return fmt.Errorf("validate: min samples (%d) must be >= batch "+
			"size (%d)", c.MinSamples, c.BatchSize)
	}

	switch c.Kind {
	case OnlineKind:
		return nil

	case PrioritizedKind:
		if c.Capacity < c.MinSamples {
			return fmt.Errorf("validate: cannot have min samples (%d) > "+
				"buffer capacity (%d)", c.MinSamples, c.Capacity)
		}
		if c.Alpha < 0 || c.Alpha > 1 || math.IsNaN(c.Alpha) {
			return fmt.Errorf("validate: alpha must be in [0, 1]")
		}
		if c.Beta < 0 || c.Beta > 1 || math.IsNaN(c.Beta) {
			return fmt.Errorf("validate: beta must be in [0, 1]")
		}
		if c.VisitKeyDims < 0 {
			return fmt.Errorf("validate: visit key dims must be >= 0")
		}
		switch c.Sampling {
		case Stratified, Proportional, "":
		default:
			return fmt.Errorf("validate: unknown sampling %q", c.Sampling)
		}
		return nil

	default:
		return fmt.Errorf("validate: unknown replay kind %q", c.Kind)
	}
}

// Create creates and returns the ExperienceReplayer with the specified
// Config
func (c Config) Create(seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	if c.Kind == OnlineKind {
		return NewOnline(), nil
	}

	selector, err := CreateSelector(c.Sampling, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	opts := []Option{WithSelector(selector)}

	if c.Decaying {
		visits, err := NewVisitation(c.VisitPenalty, c.VisitDecay,
			c.MaxVisitedStates)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		if err := visits.SetKeyDims(c.VisitKeyDims); err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		opts = append(opts, WithVisitation(visits))
	}

	return NewPrioritized(c.Capacity, c.Alpha, c.Beta, opts...)
}
