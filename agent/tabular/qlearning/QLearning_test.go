package qlearning

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/environment/envconfig"
	"github.com/samuelfneumann/mazeper/environment/maze"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newPlain(t *testing.T, c Config) (*QLearning, *maze.Maze) {
	t.Helper()
	ec, err := envconfig.DefaultConfig(envconfig.Plain)
	require.NoError(t, err)
	m, _, _, err := ec.Create(0)
	require.NoError(t, err)

	q, err := New(m, c, 1)
	require.NoError(t, err)
	return q, m
}

func obs(xy ...float64) *mat.VecDense {
	return mat.NewVecDense(len(xy), xy)
}

func TestLearn(t *testing.T) {
	q, _ := newPlain(t, PlainConfig())

	batch := []ts.Transition{
		{State: obs(0, 0), Action: int(maze.Down), Reward: -1, Discount: 0.9,
			NextState: obs(0, 1)},
		{State: obs(0, 1), Action: int(maze.Up), Reward: 2, Discount: 0.9,
			NextState: obs(0, 0)},
	}
	errs, err := q.Learn(batch, []float64{1, 0.5})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 2}, errs, 1e-12)
	assert.InDelta(t, -0.1, q.Value(obs(0, 0), int(maze.Down)), 1e-12)
	assert.InDelta(t, 0.1, q.Value(obs(0, 1), int(maze.Up)), 1e-12)

	// Bootstraps from the greedy value of the next state
	delta, err := q.TdError(ts.Transition{State: obs(0, 0),
		Action: int(maze.Down), Reward: 0, Discount: 0.9,
		NextState: obs(0, 1)})
	require.NoError(t, err)
	assert.InDelta(t, 0.9*0.1+0.1, delta, 1e-12)
}

func TestLearnTerminal(t *testing.T) {
	q, _ := newPlain(t, PlainConfig())

	_, err := q.Learn([]ts.Transition{{State: obs(4, 3),
		Action: int(maze.Up), Reward: 5, Discount: 0.9,
		NextState: obs(4, 2)}}, []float64{1})
	require.NoError(t, err)
	require.InDelta(t, 0.5, q.Value(obs(4, 3), int(maze.Up)), 1e-12)

	// Terminal transitions do not bootstrap
	delta, err := q.TdError(ts.Transition{State: obs(4, 2),
		Action: int(maze.Down), Reward: 1, Discount: 0.9,
		NextState: obs(4, 3), Done: true})
	require.NoError(t, err)
	assert.Equal(t, 1.0, delta)

	delta, err = q.TdError(ts.Transition{State: obs(4, 2),
		Action: int(maze.Down), Reward: 1, Discount: 0.9,
		NextState: obs(4, 3)})
	require.NoError(t, err)
	assert.InDelta(t, 1.45, delta, 1e-12)
}

func TestLearnErrors(t *testing.T) {
	q, _ := newPlain(t, PlainConfig())
	tr := ts.Transition{State: obs(0, 0), Action: 1, NextState: obs(1, 0)}

	_, err := q.Learn([]ts.Transition{tr}, nil)
	assert.Error(t, err)

	tr.Action = 4
	_, err = q.Learn([]ts.Transition{tr}, []float64{1})
	assert.Error(t, err)

	tr.Action = 0
	tr.State = obs(9, 9)
	_, err = q.TdError(tr)
	assert.Error(t, err)
}

func TestEpsilonDecaysPerLearn(t *testing.T) {
	q, _ := newPlain(t, PERConfig())
	require.Equal(t, 1.0, q.Epsilon())

	tr := ts.Transition{State: obs(0, 0), Action: 0, NextState: obs(0, 0)}
	for i := 0; i < 3; i++ {
		_, err := q.Learn([]ts.Transition{tr, tr}, []float64{1, 1})
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.995*0.995*0.995, q.Epsilon(), 1e-12)

	for i := 0; i < 2000; i++ {
		_, err := q.Learn(nil, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.01, q.Epsilon())
}

func TestGreedyActsOnLearnedValues(t *testing.T) {
	q, m := newPlain(t, PlainConfig())
	q.Eval()

	_, err := q.Learn([]ts.Transition{{State: obs(0, 0),
		Action: int(maze.Down), Reward: 1, NextState: obs(0, 1),
		Done: true}}, []float64{1})
	require.NoError(t, err)

	step := m.CurrentTimeStep()
	assert.Equal(t, float64(maze.Down), q.SelectAction(step).AtVec(0))
	assert.Equal(t, int(maze.Down), q.Greedy(obs(0, 0)))

	q.EndEpisode()
	assert.Equal(t, 1, q.Episodes())
	assert.Contains(t, q.String(), "egreedy")
}

func TestKeyedCountBased(t *testing.T) {
	ec, err := envconfig.DefaultConfig(envconfig.Key)
	require.NoError(t, err)
	m, step, _, err := ec.Create(3)
	require.NoError(t, err)

	q, err := New(m, KeyConfig(), 3)
	require.NoError(t, err)

	rows, cols := q.Values().Dims()
	assert.Equal(t, 2*10*10, rows)
	assert.Equal(t, maze.Actions, cols)

	// Values with and without the key are separate
	_, err = q.Learn([]ts.Transition{{State: obs(0, 0, 1), Action: 1,
		Reward: 1, NextState: obs(1, 0, 1), Done: true}}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.Value(obs(0, 0, 0), 1))
	assert.InDelta(t, 0.1, q.Value(obs(0, 0, 1), 1), 1e-12)

	// Fully exploring, the first four actions from the start differ
	seen := make(map[float64]bool)
	for i := 0; i < maze.Actions; i++ {
		seen[q.SelectAction(step).AtVec(0)] = true
	}
	assert.Len(t, seen, maze.Actions)
}

func TestConfig(t *testing.T) {
	for _, c := range []Config{PlainConfig(), PERConfig(), KeyConfig()} {
		assert.NoError(t, c.Validate())
	}
	assert.Equal(t, agent.EGreedyQLearningTabular, PERConfig().Type())
	assert.Equal(t, agent.CountBasedQLearningTabular, KeyConfig().Type())

	bad := []Config{
		{Epsilon: 2, EpsilonDecay: 1, LearningRate: 0.1},
		{Epsilon: 0.5, MinEpsilon: 0.6, EpsilonDecay: 1, LearningRate: 0.1},
		{Epsilon: 0.5, EpsilonDecay: 0, LearningRate: 0.1},
		{Epsilon: 0.5, EpsilonDecay: 1, LearningRate: 0},
		{Epsilon: 0.5, EpsilonDecay: 1, LearningRate: 0.1, Exploration: "ucb"},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}

	q, _ := newPlain(t, PlainConfig())
	assert.True(t, PlainConfig().ValidAgent(q))
	assert.False(t, KeyConfig().ValidAgent(q))
}

func TestTypedConfigRoundTrip(t *testing.T) {
	data, err := json.Marshal(agent.NewTypedConfig(KeyConfig()))
	require.NoError(t, err)

	var typed agent.TypedConfig
	require.NoError(t, json.Unmarshal(data, &typed))
	assert.Equal(t, agent.CountBasedQLearningTabular, typed.Type)
	assert.Equal(t, KeyConfig(), typed.Config)
}
