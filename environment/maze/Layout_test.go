package maze

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsSolvable(t *testing.T) {
	for _, name := range Presets() {
		t.Run(name, func(t *testing.T) {
			l, err := Preset(name)
			require.NoError(t, err)
			assert.True(t, l.Solvable())
			assert.Equal(t, Free, l.At(l.Start))

			parsed, err := ParseLayout(l.String())
			require.NoError(t, err)
			assert.Equal(t, l, parsed)
		})
	}

	_, err := Preset("labyrinth")
	assert.Error(t, err)
}

func TestPresetDimensions(t *testing.T) {
	tests := []struct {
		layout      *Layout
		size        int
		start, goal Point
		traps       int
	}{
		{SimpleLayout(), 5, Point{0, 0}, Point{4, 4}, 1},
		{ComplexLayout(), 8, Point{1, 1}, Point{6, 6}, 3},
		{SpiralLayout(), 6, Point{0, 5}, Point{5, 5}, 0},
	}

	for _, test := range tests {
		assert.Equal(t, test.size, test.layout.Width)
		assert.Equal(t, test.size, test.layout.Height)
		assert.Equal(t, test.start, test.layout.Start)
		assert.Equal(t, test.goal, test.layout.Goal)
		assert.Len(t, test.layout.Cells(Trap), test.traps)
		assert.False(t, test.layout.Keyed())
	}
}

func TestDistance(t *testing.T) {
	l := SimpleLayout()
	assert.Equal(t, 12.0, l.Distance(l.Start, l.Goal))
	assert.Equal(t, 0.0, l.Distance(l.Start, l.Start))

	// Walls are unreachable
	assert.True(t, math.IsInf(l.Distance(l.Start, Point{1, 0}), 1))

	// Traps can end a path but not be passed through
	assert.Equal(t, 5.0, l.Distance(l.Start, Point{2, 3}))
}

func TestDistanceAvoidsThroughCells(t *testing.T) {
	l, err := ParseLayout(`
		S.K..
		####.
		G....
	`)
	require.NoError(t, err)

	key, ok := l.Key()
	require.True(t, ok)
	assert.Equal(t, Point{2, 0}, key)

	assert.Equal(t, 10.0, l.Distance(l.Start, l.Goal))
	assert.True(t, math.IsInf(l.Distance(l.Start, l.Goal, key), 1))
	assert.Equal(t, 2.0, l.Distance(l.Start, key, key))
	assert.Equal(t, 8.0, l.Distance(key, l.Goal, key))
}

func TestParseLayoutErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"S..\n..",
		"S.X\n..G",
		"S..\n...",
		"SS.\n..G",
		"SKK\n..G",
	} {
		_, err := ParseLayout(s)
		assert.Error(t, err, "%q", s)
	}
}

func TestLayoutSet(t *testing.T) {
	l, err := NewLayout(3, 3, Point{0, 0}, Point{2, 2})
	require.NoError(t, err)

	assert.Error(t, l.Set(Point{0, 0}, Wall))
	assert.Error(t, l.Set(Point{3, 0}, Wall))
	require.NoError(t, l.Set(Point{1, 1}, Wall))
	assert.False(t, l.Passable(Point{1, 1}))
	assert.False(t, l.Passable(Point{-1, 0}))

	assert.Error(t, l.SetKey(Point{1, 1}))
	require.NoError(t, l.SetKey(Point{2, 0}))
	assert.True(t, l.Keyed())
	assert.Error(t, l.Set(Point{2, 0}, Trap))

	clone := l.Clone()
	require.NoError(t, clone.Set(Point{1, 1}, Free))
	assert.Equal(t, Wall, l.At(Point{1, 1}))
}

func TestNewLayoutInvalid(t *testing.T) {
	_, err := NewLayout(0, 3, Point{0, 0}, Point{0, 1})
	assert.Error(t, err)
	_, err = NewLayout(3, 3, Point{0, 0}, Point{0, 0})
	assert.Error(t, err)
	_, err = NewLayout(3, 3, Point{0, 0}, Point{3, 3})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	for _, size := range []int{4, 6, 10, 15} {
		for _, keyed := range []bool{false, true} {
			rng := rand.New(rand.NewPCG(uint64(size), 3))
			l, stats, err := Generate(size, keyed, rng)
			require.NoError(t, err)

			assert.Equal(t, Point{0, 0}, l.Start)
			assert.Equal(t, Point{size - 1, size - 1}, l.Goal)
			assert.Equal(t, keyed, l.Keyed())
			assert.Equal(t, Free, l.At(l.Start))
			assert.Equal(t, Free, l.At(l.Goal))

			walls := len(l.Cells(Wall))
			assert.Equal(t, stats.Placed, walls)
			assert.LessOrEqual(t, walls, stats.Target)
			assert.Equal(t, int(float64(size*size)*0.2), stats.Target)
			assert.LessOrEqual(t, stats.Attempts, 1000)
			assert.Equal(t, l.Solvable(), stats.Solvable)
			if !stats.Fallback {
				assert.True(t, stats.Solvable)
			}

			if key, ok := l.Key(); ok {
				assert.GreaterOrEqual(t, key.Manhattan(l.Goal), 3)
				assert.Equal(t, Free, l.At(key))
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, _, err := Generate(10, true, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	b, _, err := Generate(10, true, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestGenerateTooSmallForKey(t *testing.T) {
	_, _, err := Generate(2, true, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)

	_, _, err = Generate(1, false, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)
}
