package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewTransition(t *testing.T) {
	first := New(First, 0, 0.95, mat.NewVecDense(2, []float64{0, 0}), 0)
	next := New(Last, 10, 0.95, mat.NewVecDense(2, []float64{1, 0}), 1)
	next.SetEnd(TerminalStateReached)

	tr := NewTransition(first, 1, next)
	assert.Equal(t, 1, tr.Action)
	assert.Equal(t, 10.0, tr.Reward)
	assert.True(t, tr.Done)
	assert.Equal(t, StateKey("(0, 0)"), Key(tr.State))
	assert.Equal(t, StateKey("(1, 0)"), Key(tr.NextState))

	// The transition owns copies of the observations
	first.Observation.SetVec(0, 5)
	assert.Equal(t, 0.0, tr.State.AtVec(0))
}

func TestNewTransitionTimeoutIsNotTerminal(t *testing.T) {
	first := New(Mid, 0, 1, mat.NewVecDense(2, []float64{2, 3}), 9)
	next := New(Last, -1, 1, mat.NewVecDense(2, []float64{2, 4}), 10)
	next.SetEnd(Timeout)

	tr := NewTransition(first, 2, next)
	assert.False(t, tr.Done)
	assert.False(t, next.Succeeded())
}

func TestKey(t *testing.T) {
	assert.Equal(t, StateKey("(3, 4, 1)"),
		Key(mat.NewVecDense(3, []float64{3, 4, 1})))
	assert.Equal(t, Key(mat.NewVecDense(2, []float64{1.0, 2.0})),
		Key(mat.NewVecDense(2, []float64{1, 2})))
	assert.Equal(t, StateKey(""), Key(nil))
}

func TestKeyN(t *testing.T) {
	v := mat.NewVecDense(3, []float64{3, 4, 1})
	assert.Equal(t, StateKey("(3, 4)"), KeyN(v, 2))
	assert.Equal(t, Key(v), KeyN(v, 0))
	assert.Equal(t, Key(v), KeyN(v, 5))
	assert.Equal(t, StateKey(""), KeyN(nil, 2))
}
