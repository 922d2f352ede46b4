package expreplay

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultVisitPenalty is the reward subtracted per unit of decayed
	// visitation count
	DefaultVisitPenalty = 0.3

	// DefaultVisitDecay multiplies every tracked count after each
	// insertion
	DefaultVisitDecay = 0.99
)

// Visitation tracks a decaying visit count per state and penalizes
// the rewards of transitions out of frequently visited states.
//
// Counts for both the state and next state of a transition are
// incremented on each insertion, after which every count in the table
// is multiplied by the decay factor. If maxStates > 0, the table holds
// at most maxStates entries and the entry with the lowest count is
// evicted to make room.
//
// By default a state is identified by its whole observation vector.
// SetKeyDims restricts identification to a leading block of
// components, so that observations which also carry agent-held items
// share the count of the cell they describe.
type Visitation struct {
	counts    map[ts.StateKey]float64
	penalty   float64
	decay     float64
	maxStates int
	keyDims   int
}

// NewVisitation returns a new, empty Visitation table
func NewVisitation(penalty, decay float64, maxStates int) (*Visitation,
	error) {
	if penalty < 0 || math.IsNaN(penalty) {
		return nil, fmt.Errorf("newVisitation: penalty must be >= 0")
	}
	if decay <= 0 || decay > 1 {
		return nil, fmt.Errorf("newVisitation: decay must be in (0, 1]")
	}
	if maxStates < 0 {
		return nil, fmt.Errorf("newVisitation: maxStates must be >= 0")
	}

	return &Visitation{
		counts:    make(map[ts.StateKey]float64),
		penalty:   penalty,
		decay:     decay,
		maxStates: maxStates,
	}, nil
}

// SetKeyDims makes the table count visits by the first dims components
// of each state. A dims of 0 uses the whole state.
func (v *Visitation) SetKeyDims(dims int) error {
	if dims < 0 {
		return fmt.Errorf("setKeyDims: dims must be >= 0")
	}
	v.keyDims = dims
	return nil
}

func (v *Visitation) key(state mat.Vector) ts.StateKey {
	return ts.KeyN(state, v.keyDims)
}

// Penalize returns t with its reward reduced by penalty times the
// current count of t.State and records the visit. The penalty has no
// floor, so rewards may become arbitrarily negative.
func (v *Visitation) Penalize(t ts.Transition) ts.Transition {
	state := v.key(t.State)
	next := v.key(t.NextState)

	t.Reward -= v.penalty * v.counts[state]

	v.counts[state]++
	v.counts[next]++

	for k := range v.counts {
		v.counts[k] *= v.decay
	}

	v.evict(state, next)
	return t
}

// evict removes the lowest count entries, other than keep, until the
// table fits in maxStates
func (v *Visitation) evict(keep ...ts.StateKey) {
	if v.maxStates == 0 {
		return
	}

	for len(v.counts) > v.maxStates {
		var victim ts.StateKey
		lowest := math.Inf(1)

	Search:
		for k, c := range v.counts {
			for _, kept := range keep {
				if k == kept {
					continue Search
				}
			}
			if c < lowest {
				lowest = c
				victim = k
			}
		}

		if math.IsInf(lowest, 1) {
			// Only protected keys remain
			return
		}
		delete(v.counts, victim)
	}
}

// Count returns the current decayed count of state
func (v *Visitation) Count(state mat.Vector) float64 {
	return v.counts[v.key(state)]
}

// Len returns the number of tracked states
func (v *Visitation) Len() int {
	return len(v.counts)
}

// Clear forgets all visits
func (v *Visitation) Clear() {
	clear(v.counts)
}
