package expreplay

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/mazeper/expreplay/sumtree"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultAlpha = 0.6
	DefaultBeta  = 0.4

	// MinPriority is the floor applied to raw priorities before they
	// are raised to alpha
	MinPriority = 1e-6

	initialMaxPriority = 1.0
)

// Option configures a Prioritized buffer
type Option func(*Prioritized)

// WithVisitation penalizes the rewards of stored transitions using v
func WithVisitation(v *Visitation) Option {
	return func(p *Prioritized) {
		p.visits = v
	}
}

// WithSelector sets how cumulative priority values are drawn when
// sampling. The default is a stratified Selector seeded with 0.
func WithSelector(s Selector) Option {
	return func(p *Prioritized) {
		p.selector = s
	}
}

// Prioritized implements a proportional prioritized experience replay
// buffer. Transitions are sampled with probability proportional to
// their priority and returned with importance-sampling weights that
// correct for the non-uniform sampling.
//
// New transitions enter with the largest priority seen so far, so that
// each is likely to be replayed at least once.
type Prioritized struct {
	tree *sumtree.SumTree[ts.Transition]

	alpha       float64
	beta        float64
	maxPriority float64

	visits   *Visitation
	selector Selector
}

// NewPrioritized returns a new Prioritized buffer holding at most
// capacity transitions. Priorities are raised to alpha when stored
// and importance-sampling weights are raised to beta.
func NewPrioritized(capacity int, alpha, beta float64,
	opts ...Option) (*Prioritized, error) {
	if alpha < 0 || alpha > 1 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("newPrioritized: alpha must be in [0, 1]")
	}
	if beta < 0 || beta > 1 || math.IsNaN(beta) {
		return nil, fmt.Errorf("newPrioritized: beta must be in [0, 1]")
	}

	tree, err := sumtree.New[ts.Transition](capacity)
	if err != nil {
		return nil, fmt.Errorf("newPrioritized: %w", err)
	}

	p := &Prioritized{
		tree:        tree,
		alpha:       alpha,
		beta:        beta,
		maxPriority: initialMaxPriority,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.selector == nil {
		p.selector = NewStratifiedSelector(0)
	}

	return p, nil
}

// Add adds a transition to the buffer with the current maximum
// priority. If the buffer tracks visitation, the stored reward is
// penalized by the decayed visit count of the transition's state.
func (p *Prioritized) Add(t ts.Transition) error {
	if t.State == nil || t.NextState == nil {
		return &ExpReplayError{
			Op:  "add",
			Err: fmt.Errorf("transition missing state or next state"),
		}
	}

	if p.visits != nil {
		t = p.visits.Penalize(t)
	}
	p.tree.Add(p.maxPriority, t)
	return nil
}

// Sample samples batchSize transitions in proportion to their
// priorities. It returns the tree indices of the sampled transitions,
// which should be passed back to UpdatePriorities, the transitions
// themselves, and their importance-sampling weights normalized so
// that the largest weight in the batch is 1.
func (p *Prioritized) Sample(batchSize int) ([]int, []ts.Transition,
	[]float64, error) {
	if batchSize <= 0 {
		return nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: fmt.Errorf("batch size must be > 0, have %d", batchSize),
		}
	}
	if p.Len() == 0 {
		return nil, nil, nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if p.Len() < batchSize {
		return nil, nil, nil, &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w: have %d want %d", errInsufficientSamples,
				p.Len(), batchSize),
		}
	}

	total := p.tree.Total()
	indices := make([]int, batchSize)
	batch := make([]ts.Transition, batchSize)
	weights := make([]float64, batchSize)

	for i, v := range p.selector.choose(total, batchSize) {
		leaf, priority, t, err := p.tree.Get(math.Min(v, total))
		if err != nil {
			return nil, nil, nil, &ExpReplayError{Op: "sample", Err: err}
		}

		prob := priority / total
		indices[i] = leaf
		batch[i] = t
		weights[i] = math.Pow(1/prob, p.beta)
	}

	floats.Scale(1/floats.Max(weights), weights)
	return indices, batch, weights, nil
}

// UpdatePriorities sets the priority of the transition at each tree
// index in indices to the corresponding raw priority, typically the
// absolute TD error. Raw priorities are floored at MinPriority and
// raised to alpha before being stored. NaN and infinite priorities are
// rejected. Either all priorities are updated or, on error, none are.
func (p *Prioritized) UpdatePriorities(indices []int,
	priorities []float64) error {
	if len(indices) != len(priorities) {
		return &ExpReplayError{
			Op: "updatePriorities",
			Err: fmt.Errorf("%w: %d indices, %d priorities", errMismatch,
				len(indices), len(priorities)),
		}
	}

	for i, idx := range indices {
		if math.IsNaN(priorities[i]) || math.IsInf(priorities[i], 0) {
			return &ExpReplayError{Op: "updatePriorities", Err: errInvalidPriority}
		}
		if _, err := p.tree.Priority(idx); err != nil {
			return &ExpReplayError{Op: "updatePriorities", Err: err}
		}
	}

	for i, idx := range indices {
		priority := math.Max(priorities[i], MinPriority)

		// Indices and priorities were checked above
		_ = p.tree.Update(idx, math.Pow(priority, p.alpha))
		p.maxPriority = math.Max(p.maxPriority, priority)
	}

	return nil
}

// UpdatePriority sets the priority of every transition in indices to
// priority
func (p *Prioritized) UpdatePriority(indices []int, priority float64) error {
	priorities := make([]float64, len(indices))
	for i := range priorities {
		priorities[i] = priority
	}
	return p.UpdatePriorities(indices, priorities)
}

// Len returns the number of transitions stored in the buffer
func (p *Prioritized) Len() int {
	return p.tree.Len()
}

// Capacity returns the maximum number of transitions the buffer holds
func (p *Prioritized) Capacity() int {
	return p.tree.Capacity()
}

// Total returns the sum of all stored priorities
func (p *Prioritized) Total() float64 {
	return p.tree.Total()
}

// MaxPriority returns the priority given to newly added transitions
func (p *Prioritized) MaxPriority() float64 {
	return p.maxPriority
}

// Priority returns the stored priority of the transition at tree
// index idx
func (p *Prioritized) Priority(idx int) (float64, error) {
	return p.tree.Priority(idx)
}

// Visited returns the visitation table of the buffer, or nil if the
// buffer does not track visitation
func (p *Prioritized) Visited() *Visitation {
	return p.visits
}

// ClearVisited forgets all recorded state visits
func (p *Prioritized) ClearVisited() {
	if p.visits != nil {
		p.visits.Clear()
	}
}

func (p *Prioritized) String() string {
	return fmt.Sprintf("Prioritized | Alpha: %v  |  Beta: %v  |  Max "+
		"Priority: %.4f  |  %v", p.alpha, p.beta, p.maxPriority, p.tree)
}
