package policy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samuelfneumann/mazeper/agent/tabular"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/samuelfneumann/mazeper/utils/matutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CountBased explores by trying the action taken least often in the
// current state. With probability ε it selects the first least tried
// action and otherwise the first greedy action.
type CountBased struct {
	values  *mat.Dense
	counts  *mat.Dense
	indexer tabular.Indexer

	epsilon float64
	decay   Decay
	explore distuv.Bernoulli
	eval    bool
}

// NewCountBased constructs a new CountBased policy which reads action
// values from values, a states x actions table indexed by indexer
func NewCountBased(values *mat.Dense, indexer tabular.Indexer,
	epsilon float64, decay Decay, seed uint64) (*CountBased, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newCountBased: epsilon must be in [0, 1]")
	}
	if err := decay.validate(); err != nil {
		return nil, fmt.Errorf("newCountBased: %w", err)
	}
	rows, cols := values.Dims()
	if rows != indexer.States() {
		return nil, fmt.Errorf("newCountBased: table has %d rows, want %d",
			rows, indexer.States())
	}

	return &CountBased{
		values:  values,
		counts:  mat.NewDense(rows, cols, nil),
		indexer: indexer,
		epsilon: epsilon,
		decay:   decay,
		explore: distuv.Bernoulli{P: epsilon, Src: rand.NewPCG(seed, seed^0xcb)},
	}, nil
}

// SelectAction selects an action and records that it was tried
func (p *CountBased) SelectAction(t ts.TimeStep) *mat.VecDense {
	state := p.indexer.MustIndex(t.Observation)

	var action int
	if !p.eval && p.explore.Rand() == 1 {
		action = matutils.MinVec(p.counts.RowView(state))
	} else {
		action = matutils.MaxVec(p.values.RowView(state))
	}

	if !p.eval {
		p.counts.Set(state, action, p.counts.At(state, action)+1)
	}
	return mat.NewVecDense(1, []float64{float64(action)})
}

// Count returns how often action was selected in state obs
func (p *CountBased) Count(obs mat.Vector, action int) float64 {
	return p.counts.At(p.indexer.MustIndex(obs), action)
}

// Epsilon returns the current exploration rate
func (p *CountBased) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the exploration rate
func (p *CountBased) SetEpsilon(epsilon float64) {
	p.epsilon = epsilon
	p.explore.P = epsilon
}

// Decay applies one step of the exploration schedule
func (p *CountBased) Decay() {
	p.SetEpsilon(math.Max(p.decay.Min, p.epsilon*p.decay.Rate))
}

// Eval sets the policy to evaluation mode, where it acts greedily and
// stops counting
func (p *CountBased) Eval() { p.eval = true }

// Train sets the policy to training mode
func (p *CountBased) Train() { p.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (p *CountBased) IsEval() bool { return p.eval }
