// Package config holds the configuration of a training run. Values
// are layered by viper: command line flags override MAZEPER_*
// environment variables, which override an optional config file,
// which overrides the defaults of the selected maze variant.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/agent/tabular/qlearning"
	"github.com/samuelfneumann/mazeper/environment/envconfig"
	"github.com/samuelfneumann/mazeper/environment/maze"
	"github.com/samuelfneumann/mazeper/experiment"
	"github.com/samuelfneumann/mazeper/expreplay"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by Load
const EnvPrefix = "MAZEPER"

// Config holds all configuration of a training run
type Config struct {
	// Environment
	Variant  string  `mapstructure:"variant"`
	Layout   string  `mapstructure:"layout"`
	Size     int     `mapstructure:"size"`
	MaxSteps uint    `mapstructure:"max_steps"`
	Discount float64 `mapstructure:"discount"`

	// Experiment
	Episodes  int    `mapstructure:"episodes"`
	Trials    int    `mapstructure:"trials"`
	Seed      uint64 `mapstructure:"seed"`
	Objective string `mapstructure:"objective"`

	// Replay buffer
	Replay           string  `mapstructure:"replay"`
	Capacity         int     `mapstructure:"capacity"`
	Alpha            float64 `mapstructure:"alpha"`
	Beta             float64 `mapstructure:"beta"`
	BatchSize        int     `mapstructure:"batch_size"`
	MinSamples       int     `mapstructure:"min_samples"`
	Sampling         string  `mapstructure:"sampling"`
	Decaying         bool    `mapstructure:"decaying"`
	VisitPenalty     float64 `mapstructure:"visit_penalty"`
	VisitDecay       float64 `mapstructure:"visit_decay"`
	MaxVisitedStates int     `mapstructure:"max_visited_states"`
	SharedReplay     bool    `mapstructure:"shared_replay"`

	// Agent
	Epsilon      float64 `mapstructure:"epsilon"`
	MinEpsilon   float64 `mapstructure:"min_epsilon"`
	EpsilonDecay float64 `mapstructure:"epsilon_decay"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Exploration  string  `mapstructure:"exploration"`

	// Output
	OutDir   string `mapstructure:"out_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogEvery int    `mapstructure:"log_every"`
	Render   bool   `mapstructure:"render"`
	Progress bool   `mapstructure:"progress"`
}

// Default returns the defaults of a maze variant
func Default(variant string) (*Config, error) {
	v := envconfig.Variant(strings.ToLower(variant))
	env, err := envconfig.DefaultConfig(v)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}

	c := &Config{
		Variant:  string(env.Variant),
		Layout:   env.Layout,
		Size:     env.Size,
		MaxSteps: env.EpisodeCutoff,
		Discount: env.Discount,
		Trials:   1,
		Seed:     1,
		OutDir:   "results",
		LogLevel: "info",
		LogEvery: 50,
		Render:   true,
	}

	var q qlearning.Config
	var replay expreplay.Config
	switch v {
	case envconfig.Plain:
		c.Episodes = 2000
		c.Objective = string(experiment.Shortest)
		q, replay = qlearning.PlainConfig(), expreplay.OnlineConfig()

	case envconfig.PER:
		c.Episodes = 500
		c.Objective = string(experiment.Shortest)
		q, replay = qlearning.PERConfig(), expreplay.DefaultConfig()
		replay.Decaying = false

	case envconfig.Key:
		c.Episodes = 1000
		c.Objective = string(experiment.HighestReturn)
		q, replay = qlearning.KeyConfig(), expreplay.DefaultConfig()
	}

	c.Replay = string(replay.Kind)
	c.Capacity = replay.Capacity
	c.Alpha, c.Beta = replay.Alpha, replay.Beta
	c.BatchSize, c.MinSamples = replay.BatchSize, replay.MinSamples
	c.Sampling = string(replay.Sampling)
	c.Decaying = replay.Decaying
	c.VisitPenalty, c.VisitDecay = replay.VisitPenalty, replay.VisitDecay
	c.MaxVisitedStates = replay.MaxVisitedStates

	c.Epsilon, c.MinEpsilon = q.Epsilon, q.MinEpsilon
	c.EpsilonDecay, c.LearningRate = q.EpsilonDecay, q.LearningRate
	c.Exploration = string(q.Exploration)

	return c, nil
}

// Keys returns the configuration keys understood by Load
func Keys() []string {
	var m map[string]any
	if err := mapstructure.Decode(Config{}, &m); err != nil {
		panic(err)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Load reads the Config from v. The variant is resolved first and its
// defaults are installed beneath every other source, so that only
// values set explicitly override them.
func Load(v *viper.Viper) (*Config, error) {
	variant := v.GetString("variant")
	if variant == "" {
		variant = string(envconfig.PER)
	}

	c, err := Default(variant)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	var defaults map[string]any
	if err := mapstructure.Decode(*c, &defaults); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	c.Variant = strings.ToLower(c.Variant)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Validate checks that the Config describes a runnable experiment
func (c *Config) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if c.OutDir == "" {
		return fmt.Errorf("out_dir is required")
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must be >= 0")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.SharedReplay && expreplay.Kind(c.Replay) != expreplay.PrioritizedKind {
		return fmt.Errorf("shared_replay needs the %s replay buffer",
			expreplay.PrioritizedKind)
	}

	exp, err := c.Experiment()
	if err != nil {
		return err
	}
	return exp.Validate()
}

// Level returns the zerolog level named by LogLevel
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Environment returns the maze configuration
func (c *Config) Environment() envconfig.Config {
	return envconfig.Config{
		Variant:       envconfig.Variant(c.Variant),
		Layout:        c.Layout,
		Size:          c.Size,
		EpisodeCutoff: c.MaxSteps,
		Discount:      c.Discount,
	}
}

// Agent returns the Q-learning configuration
func (c *Config) Agent() qlearning.Config {
	return qlearning.Config{
		Epsilon:      c.Epsilon,
		MinEpsilon:   c.MinEpsilon,
		EpsilonDecay: c.EpsilonDecay,
		LearningRate: c.LearningRate,
		Exploration:  qlearning.Exploration(c.Exploration),
	}
}

// ReplayBuffer returns the replay buffer configuration
func (c *Config) ReplayBuffer() expreplay.Config {
	return expreplay.Config{
		Kind:             expreplay.Kind(c.Replay),
		Capacity:         c.Capacity,
		Alpha:            c.Alpha,
		Beta:             c.Beta,
		BatchSize:        c.BatchSize,
		MinSamples:       c.MinSamples,
		Sampling:         expreplay.SelectorType(c.Sampling),
		Decaying:         c.Decaying,
		VisitPenalty:     c.VisitPenalty,
		VisitDecay:       c.VisitDecay,
		MaxVisitedStates: c.MaxVisitedStates,
		VisitKeyDims:     maze.PositionDims,
	}
}

// Experiment returns the experiment configuration
func (c *Config) Experiment() (experiment.Config, error) {
	switch envconfig.Variant(c.Variant) {
	case envconfig.Plain, envconfig.PER, envconfig.Key:
	default:
		return experiment.Config{}, fmt.Errorf("unknown variant %q", c.Variant)
	}

	return experiment.Config{
		Episodes:   c.Episodes,
		LogEvery:   c.LogEvery,
		Objective:  experiment.Objective(c.Objective),
		EnvConf:    c.Environment(),
		AgentConf:  agent.NewTypedConfig(c.Agent()),
		ReplayConf: c.ReplayBuffer(),
	}, nil
}
