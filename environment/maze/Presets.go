package maze

import (
	"fmt"
	"math/rand/v2"
)

// Names of the preset layouts
const (
	Simple  = "simple"
	Complex = "complex"
	Spiral  = "spiral"
)

// SimpleLayout returns a 5x5 maze with a single trap next to the
// winding path to the exit
func SimpleLayout() *Layout {
	return mustParse(`
		S#...
		.#.#.
		...#.
		.#T#.
		.#..G
	`)
}

// ComplexLayout returns an 8x8 walled maze with two openings in its
// inner walls and three traps
func ComplexLayout() *Layout {
	return mustParse(`
		########
		#S#....#
		#.####T#
		#.#T.#.#
		#...T#.#
		#.#....#
		#....#G#
		########
	`)
}

// SpiralLayout returns a 6x6 maze whose path spirals from the bottom
// left corner, up the left edge and down the right edge to the exit
func SpiralLayout() *Layout {
	return mustParse(`
		....#.
		.##...
		..#.#.
		.#.##.
		....#.
		S...#G
	`)
}

// Preset returns the preset layout with the given name
func Preset(name string) (*Layout, error) {
	switch name {
	case Simple:
		return SimpleLayout(), nil

	case Complex:
		return ComplexLayout(), nil

	case Spiral:
		return SpiralLayout(), nil

	default:
		return nil, fmt.Errorf("preset: no preset layout %q", name)
	}
}

// Presets returns the names of all preset layouts
func Presets() []string {
	return []string{Simple, Complex, Spiral}
}

func mustParse(s string) *Layout {
	l, err := ParseLayout(s)
	if err != nil {
		panic(err)
	}
	return l
}

const (
	obstacleFraction = 0.2
	rightBias        = 0.7
	maxAttempts      = 1000

	// fallbackFraction is the fraction of the target obstacle count
	// below which remaining obstacles are placed without path checks
	fallbackFraction = 0.8

	minKeyGoalDistance = 3
)

// Stats describes how a generated Layout was built
type Stats struct {
	Target   int
	Placed   int
	Attempts int

	// Fallback is true if obstacles had to be placed in scan order
	// after random placement fell short
	Fallback bool
	Solvable bool
}

// Generate returns a random size x size Layout with its start in the
// top left and its goal in the bottom right corner. If keyed is true,
// a key is placed at least three steps (Manhattan) from the goal.
//
// Obstacles are placed at random until a fifth of the cells are
// walls or 1000 placements have been tried. For mazes larger than 5x5,
// 70% of placements are drawn from the right half of the maze. A
// placement is kept only if the maze stays solvable. If fewer than 80%
// of the target obstacles could be placed, the rest are filled in
// scan order without checking that the maze stays solvable, which is
// reported in the returned Stats.
func Generate(size int, keyed bool, rng *rand.Rand) (*Layout, Stats, error) {
	l, err := NewLayout(size, size, Point{0, 0}, Point{size - 1, size - 1})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("generate: %w", err)
	}

	if keyed {
		var candidates []Point
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				p := Point{x, y}
				if p != l.Start && p != l.Goal &&
					p.Manhattan(l.Goal) >= minKeyGoalDistance {
					candidates = append(candidates, p)
				}
			}
		}
		if len(candidates) == 0 {
			return nil, Stats{}, fmt.Errorf("generate: no cell is %d steps "+
				"from the goal in a %dx%d maze", minKeyGoalDistance, size, size)
		}
		if err := l.SetKey(candidates[rng.IntN(len(candidates))]); err != nil {
			return nil, Stats{}, fmt.Errorf("generate: %w", err)
		}
	}

	stats := Stats{Target: int(float64(size*size) * obstacleFraction)}
	for stats.Placed < stats.Target && stats.Attempts < maxAttempts {
		stats.Attempts++

		var p Point
		if rng.Float64() < rightBias && size > 5 {
			p = Point{size/2 + rng.IntN(size-size/2), rng.IntN(size)}
		} else {
			p = Point{rng.IntN(size), rng.IntN(size)}
		}

		if p == l.Start || p == l.Goal || l.isKey(p) || l.At(p) == Wall {
			continue
		}

		l.cells[p.Y*size+p.X] = Wall
		if l.Solvable() {
			stats.Placed++
		} else {
			l.cells[p.Y*size+p.X] = Free
		}
	}

	if float64(stats.Placed) < float64(stats.Target)*fallbackFraction {
		stats.Fallback = true
		for x := 0; x < size && stats.Placed < stats.Target; x++ {
			for y := 0; y < size && stats.Placed < stats.Target; y++ {
				p := Point{x, y}
				if p == l.Start || p == l.Goal || l.isKey(p) ||
					l.At(p) == Wall {
					continue
				}
				l.cells[p.Y*size+p.X] = Wall
				stats.Placed++
			}
		}
	}

	stats.Solvable = l.Solvable()
	return l, stats, nil
}
