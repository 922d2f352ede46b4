package policy

import (
	"testing"

	"github.com/samuelfneumann/mazeper/agent/tabular"
	env "github.com/samuelfneumann/mazeper/environment"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// table returns a 2x2 grid indexer and a zeroed 4-state x 4-action table
func table(t *testing.T) (*mat.Dense, tabular.Indexer) {
	t.Helper()
	spec := env.NewSpec(mat.NewVecDense(2, nil), env.Observation,
		mat.NewVecDense(2, nil), mat.NewVecDense(2, []float64{1, 1}),
		env.Discrete)
	ix, err := tabular.NewIndexer(spec)
	require.NoError(t, err)
	return mat.NewDense(ix.States(), 4, nil), ix
}

func step(x, y float64) ts.TimeStep {
	return ts.New(ts.First, 0, 1, mat.NewVecDense(2, []float64{x, y}), 0)
}

func TestEGreedyProbabilities(t *testing.T) {
	values, ix := table(t)
	values.SetRow(0, []float64{1, 3, 3, 0})

	p, err := NewEGreedy(values, ix, 0.2, NoDecay, 1)
	require.NoError(t, err)

	probs := p.Probabilities(mat.NewVecDense(2, []float64{0, 0}))
	assert.InDeltaSlice(t, []float64{0.05, 0.45, 0.45, 0.05}, probs, 1e-12)

	p.Eval()
	probs = p.Probabilities(mat.NewVecDense(2, []float64{0, 0}))
	assert.InDeltaSlice(t, []float64{0, 0.5, 0.5, 0}, probs, 1e-12)
	assert.Equal(t, 0.2, p.Epsilon())
}

func TestEGreedySelectsGreedyActions(t *testing.T) {
	values, ix := table(t)
	values.SetRow(ix.MustIndex(mat.NewVecDense(2, []float64{1, 0})),
		[]float64{0, 0, 0, 2})

	p, err := NewEGreedy(values, ix, 0, NoDecay, 7)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a := p.SelectAction(step(1, 0))
		assert.Equal(t, 3.0, a.AtVec(0))
	}

	// Ties are broken at random
	seen := make(map[float64]bool)
	for i := 0; i < 200; i++ {
		seen[p.SelectAction(step(0, 1)).AtVec(0)] = true
	}
	assert.Len(t, seen, 4)
}

func TestEGreedyDecay(t *testing.T) {
	values, ix := table(t)
	p, err := NewEGreedy(values, ix, 1, Decay{Rate: 0.5, Min: 0.2}, 0)
	require.NoError(t, err)

	p.Decay()
	assert.Equal(t, 0.5, p.Epsilon())
	p.Decay()
	assert.Equal(t, 0.25, p.Epsilon())
	p.Decay()
	assert.Equal(t, 0.2, p.Epsilon())
}

func TestInvalidPolicies(t *testing.T) {
	values, ix := table(t)

	_, err := NewEGreedy(values, ix, 1.5, NoDecay, 0)
	assert.Error(t, err)
	_, err = NewEGreedy(values, ix, 0.1, Decay{Rate: 0}, 0)
	assert.Error(t, err)
	_, err = NewEGreedy(mat.NewDense(3, 4, nil), ix, 0.1, NoDecay, 0)
	assert.Error(t, err)

	_, err = NewCountBased(values, ix, -0.1, NoDecay, 0)
	assert.Error(t, err)
	_, err = NewCountBased(values, ix, 0.1, Decay{Rate: 1, Min: 2}, 0)
	assert.Error(t, err)
}

func TestCountBasedTriesLeastCounted(t *testing.T) {
	values, ix := table(t)
	p, err := NewCountBased(values, ix, 1, NoDecay, 3)
	require.NoError(t, err)

	// Always exploring, so each action is tried once before any repeats
	for i := 0; i < 8; i++ {
		a := p.SelectAction(step(0, 0))
		assert.Equal(t, float64(i%4), a.AtVec(0))
	}

	obs := mat.NewVecDense(2, []float64{0, 0})
	for a := 0; a < 4; a++ {
		assert.Equal(t, 2.0, p.Count(obs, a))
	}
}

func TestCountBasedGreedy(t *testing.T) {
	values, ix := table(t)
	values.SetRow(ix.MustIndex(mat.NewVecDense(2, []float64{1, 1})),
		[]float64{0, 5, 1, 0})

	p, err := NewCountBased(values, ix, 0, NoDecay, 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.SelectAction(step(1, 1)).AtVec(0))
	assert.Equal(t, 1.0, p.Count(mat.NewVecDense(2, []float64{1, 1}), 1))

	p.Eval()
	assert.True(t, p.IsEval())
	p.SelectAction(step(1, 1))
	assert.Equal(t, 1.0, p.Count(mat.NewVecDense(2, []float64{1, 1}), 1))

	p.Train()
	p.SetEpsilon(0.4)
	assert.Equal(t, 0.4, p.Epsilon())
}
