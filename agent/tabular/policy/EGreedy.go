// Package policy implements tabular policies which select actions from
// a shared table of action values with one row per state
package policy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samuelfneumann/mazeper/agent/tabular"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/samuelfneumann/mazeper/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Decay describes a multiplicative exploration schedule. After each
// call to Decay, ε becomes max(Min, ε*Rate).
type Decay struct {
	Rate float64
	Min  float64
}

// NoDecay keeps ε fixed
var NoDecay = Decay{Rate: 1, Min: 0}

func (d Decay) validate() error {
	if d.Rate <= 0 || d.Rate > 1 {
		return fmt.Errorf("decay rate must be in (0, 1]")
	}
	if d.Min < 0 || d.Min > 1 {
		return fmt.Errorf("minimum epsilon must be in [0, 1]")
	}
	return nil
}

// EGreedy implements an ε-greedy policy over a table of action values.
// With probability ε an action is chosen uniformly at random and
// otherwise one of the greedy actions is chosen uniformly at random.
type EGreedy struct {
	values  *mat.Dense
	indexer tabular.Indexer

	epsilon float64
	decay   Decay
	eval    bool

	src rand.Source
}

// NewEGreedy constructs a new EGreedy policy which reads action values
// from values, a states x actions table indexed by indexer
func NewEGreedy(values *mat.Dense, indexer tabular.Indexer, epsilon float64,
	decay Decay, seed uint64) (*EGreedy, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newEGreedy: epsilon must be in [0, 1]")
	}
	if err := decay.validate(); err != nil {
		return nil, fmt.Errorf("newEGreedy: %w", err)
	}
	if rows, _ := values.Dims(); rows != indexer.States() {
		return nil, fmt.Errorf("newEGreedy: table has %d rows, want %d", rows,
			indexer.States())
	}

	return &EGreedy{
		values:  values,
		indexer: indexer,
		epsilon: epsilon,
		decay:   decay,
		src:     rand.NewPCG(seed, seed^0xe9),
	}, nil
}

// SelectAction selects an action from an ε-greedy policy
func (p *EGreedy) SelectAction(t ts.TimeStep) *mat.VecDense {
	probs := p.Probabilities(t.Observation)
	dist := distuv.NewCategorical(probs, p.src)

	return mat.NewVecDense(1, []float64{dist.Rand()})
}

// Probabilities returns the probability of selecting each action in
// state obs
func (p *EGreedy) Probabilities(obs mat.Vector) []float64 {
	row := p.values.RawRowView(p.indexer.MustIndex(obs))
	_, greedy := floatutils.MaxSlice(row)

	epsilon := p.epsilon
	if p.eval {
		epsilon = 0
	}

	// Calculate the ε probability of choosing any action at random
	probs := make([]float64, len(row))
	for i := range probs {
		probs[i] = epsilon / float64(len(row))
	}

	// Spread the remaining probability over all greedy actions
	for _, a := range greedy {
		probs[a] += (1 - epsilon) / float64(len(greedy))
	}
	return probs
}

// Epsilon returns the current exploration rate
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the exploration rate
func (p *EGreedy) SetEpsilon(epsilon float64) {
	p.epsilon = epsilon
}

// Decay applies one step of the exploration schedule
func (p *EGreedy) Decay() {
	p.epsilon = math.Max(p.decay.Min, p.epsilon*p.decay.Rate)
}

// Eval sets the policy to evaluation mode, where it acts greedily
func (p *EGreedy) Eval() { p.eval = true }

// Train sets the policy to training mode
func (p *EGreedy) Train() { p.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (p *EGreedy) IsEval() bool { return p.eval }
