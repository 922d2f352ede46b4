// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. End reports whether the episode
// should end at t and, if so, marks t as the last step of the episode.
type Ender interface {
	End(t *ts.TimeStep) bool
}

// Task implements the reward scheme and episode termination for some
// environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action in state and
	// arriving in nextState
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether state is a goal state of the Task
	AtGoal(state mat.Matrix) bool

	// Min and Max return the bounds of the per-step reward
	Min() float64
	Max() float64
	RewardSpec() Spec
}

// Environment implements a simualted environment, which includes a
// Task to complete
type Environment interface {
	Task

	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes action in the environment and returns the resulting
	// timestep and whether it is the last step of the episode
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	CurrentTimeStep() ts.TimeStep
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
