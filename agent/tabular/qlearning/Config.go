package qlearning

import (
	"fmt"

	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/environment"
)

func init() {
	// Register Config so that it can be typed using agent.TypedConfig
	// to help with serialization/deserialization.
	agent.Register(agent.EGreedyQLearningTabular, Config{})
	agent.Register(agent.CountBasedQLearningTabular, Config{})
}

// Exploration determines how the behaviour policy explores
type Exploration string

const (
	// EGreedy explores by acting uniformly at random
	EGreedy Exploration = "egreedy"

	// CountBased explores by taking the least tried action
	CountBased Exploration = "countbased"
)

// Config represents a configuration for the QLearning agent. Epsilon
// is multiplied by EpsilonDecay after every call to Learn, but never
// drops below MinEpsilon. An EpsilonDecay of 1 keeps Epsilon fixed.
type Config struct {
	Epsilon      float64
	MinEpsilon   float64
	EpsilonDecay float64
	LearningRate float64
	Exploration  Exploration
}

// PlainConfig returns the Config used to learn online in the plain
// maze: fixed ε = 0.1 with learning rate 0.1
func PlainConfig() Config {
	return Config{
		Epsilon:      0.1,
		MinEpsilon:   0.1,
		EpsilonDecay: 1,
		LearningRate: 0.1,
		Exploration:  EGreedy,
	}
}

// PERConfig returns the Config used with prioritized replay in
// generated mazes
func PERConfig() Config {
	return Config{
		Epsilon:      1.0,
		MinEpsilon:   0.01,
		EpsilonDecay: 0.995,
		LearningRate: 0.1,
		Exploration:  EGreedy,
	}
}

// KeyConfig returns the Config used in keyed mazes
func KeyConfig() Config {
	return Config{
		Epsilon:      1.0,
		MinEpsilon:   0.1,
		EpsilonDecay: 0.995,
		LearningRate: 0.1,
		Exploration:  CountBased,
	}
}

func (c Config) exploration() Exploration {
	if c.Exploration == "" {
		return EGreedy
	}
	return c.Exploration
}

// CreateAgent creates the agent from the Config
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	q, ok := a.(*QLearning)
	return ok && q.exploration == c.exploration()
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1]")
	}
	if c.MinEpsilon < 0 || c.MinEpsilon > c.Epsilon {
		return fmt.Errorf("minimum epsilon must be in [0, epsilon]")
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon decay must be in (0, 1]")
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1]")
	}
	switch c.exploration() {
	case EGreedy, CountBased:
	default:
		return fmt.Errorf("unknown exploration %q", c.Exploration)
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	if c.exploration() == CountBased {
		return agent.CountBasedQLearningTabular
	}
	return agent.EGreedyQLearningTabular
}
