package tabular

import (
	"testing"

	env "github.com/samuelfneumann/mazeper/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func spec(upper ...float64) env.Spec {
	n := len(upper)
	return env.NewSpec(mat.NewVecDense(n, nil), env.Observation,
		mat.NewVecDense(n, nil), mat.NewVecDense(n, upper), env.Discrete)
}

func TestIndexer(t *testing.T) {
	ix, err := NewIndexer(spec(3, 2))
	require.NoError(t, err)
	assert.Equal(t, 12, ix.States())

	seen := make(map[int]bool)
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			row, err := ix.Index(mat.NewVecDense(2, []float64{float64(x),
				float64(y)}))
			require.NoError(t, err)
			assert.Equal(t, x*3+y, row)
			seen[row] = true
		}
	}
	assert.Len(t, seen, 12)

	_, err = ix.Index(mat.NewVecDense(2, []float64{4, 0}))
	assert.Error(t, err)
	_, err = ix.Index(mat.NewVecDense(3, []float64{0, 0, 1}))
	assert.Error(t, err)
}

func TestIndexerKeyed(t *testing.T) {
	ix, err := NewIndexer(spec(2, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 18, ix.States())

	without := ix.MustIndex(mat.NewVecDense(3, []float64{1, 2, 0}))
	with := ix.MustIndex(mat.NewVecDense(3, []float64{1, 2, 1}))
	assert.Equal(t, 5, without)
	assert.Equal(t, 14, with)
}

func TestNewIndexerInvalid(t *testing.T) {
	_, err := NewIndexer(spec(1, 2, 3, 4))
	assert.Error(t, err)

	continuous := spec(2, 2)
	continuous.Cardinality = env.Continuous
	_, err = NewIndexer(continuous)
	assert.Error(t, err)
}
