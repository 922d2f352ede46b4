// Package tabular implements functionality shared by tabular agents,
// which store one value per state and action
package tabular

import (
	"fmt"

	env "github.com/samuelfneumann/mazeper/environment"
	"gonum.org/v1/gonum/mat"
)

// Indexer maps grid observations (x, y) or (x, y, hasKey) to rows of
// a table. Row x*height + y holds the cell (x, y) without the key and
// the row width*height further holds the same cell with the key.
type Indexer struct {
	width, height int
	keyed         bool
}

// NewIndexer returns an Indexer for the observations described by obs
func NewIndexer(obs env.Spec) (Indexer, error) {
	if obs.Cardinality != env.Discrete {
		return Indexer{}, fmt.Errorf("newIndexer: observations must be " +
			"discrete")
	}

	dims := obs.Shape.Len()
	if dims != 2 && dims != 3 {
		return Indexer{}, fmt.Errorf("newIndexer: observations must have 2 "+
			"or 3 dimensions, have %d", dims)
	}

	width := int(obs.UpperBound.AtVec(0)) + 1
	height := int(obs.UpperBound.AtVec(1)) + 1
	if width <= 0 || height <= 0 {
		return Indexer{}, fmt.Errorf("newIndexer: empty observation space")
	}

	return Indexer{width: width, height: height, keyed: dims == 3}, nil
}

// States returns the number of distinct states
func (ix Indexer) States() int {
	if ix.keyed {
		return 2 * ix.width * ix.height
	}
	return ix.width * ix.height
}

// Index returns the row of obs
func (ix Indexer) Index(obs mat.Vector) (int, error) {
	want := 2
	if ix.keyed {
		want = 3
	}
	if obs.Len() != want {
		return 0, fmt.Errorf("index: observation has %d dimensions, want %d",
			obs.Len(), want)
	}

	x, y := int(obs.AtVec(0)), int(obs.AtVec(1))
	if x < 0 || x >= ix.width || y < 0 || y >= ix.height {
		return 0, fmt.Errorf("index: (%d, %d) outside %dx%d grid", x, y,
			ix.width, ix.height)
	}

	row := x*ix.height + y
	if ix.keyed && obs.AtVec(2) > 0 {
		row += ix.width * ix.height
	}
	return row, nil
}

// MustIndex is like Index but panics if obs is not a valid observation
func (ix Indexer) MustIndex(obs mat.Vector) int {
	row, err := ix.Index(obs)
	if err != nil {
		panic(err)
	}
	return row
}
