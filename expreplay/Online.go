package expreplay

import (
	ts "github.com/samuelfneumann/mazeper/timestep"
)

// Online implements an experience replay buffer for sampling
// completely online.
//
// When the buffer holds only the most recent transition, experience
// replay reduces to online learning. Sampling always returns that
// transition with weight 1, and priority updates are ignored.
type Online struct {
	latest ts.Transition
	full   bool
}

// NewOnline returns a new online replay buffer
func NewOnline() *Online {
	return &Online{}
}

// Add replaces the stored transition with t
func (o *Online) Add(t ts.Transition) error {
	o.latest = t
	o.full = true
	return nil
}

// Sample returns the most recently added transition. The batch size
// is ignored beyond requiring it to be positive.
func (o *Online) Sample(batchSize int) ([]int, []ts.Transition, []float64,
	error) {
	if !o.full {
		return nil, nil, nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if batchSize <= 0 {
		return nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}
	return []int{0}, []ts.Transition{o.latest}, []float64{1}, nil
}

// UpdatePriorities implements the ExperienceReplayer interface. The
// online buffer has no priorities, so only the arguments are checked.
func (o *Online) UpdatePriorities(indices []int, priorities []float64) error {
	if len(indices) != len(priorities) {
		return &ExpReplayError{Op: "updatePriorities", Err: errMismatch}
	}
	return nil
}

// Len returns the number of transitions stored, 0 or 1
func (o *Online) Len() int {
	if o.full {
		return 1
	}
	return 0
}

// Capacity returns the maximum number of elements that are allowed
// in the buffer
func (o *Online) Capacity() int {
	return 1
}
