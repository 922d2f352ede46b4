// Package agent defines an agent interface
package agent

import (
	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns action values, and a
// Policy which chooses actions in each state. The Policy chooses which
// actions are taken, and the Learner uses these actions to update the
// Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how action
// values are updated.
type Learner interface {
	// Learn performs one update on each transition of batch, scaling
	// the update of transition i by weights[i]. It returns the
	// absolute TD error of each transition before its update, which
	// is the new priority of the transition in a prioritized buffer.
	Learn(batch []ts.Transition, weights []float64) ([]float64, error)

	// TdError returns the TD error on a transition
	TdError(t ts.Transition) (float64, error)

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should share the same action values so that any
// changes the learner makes are reflected in the actions the Policy
// chooses.
type Policy interface {
	SelectAction(t ts.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Explorer is a Policy whose exploration rate can be inspected
type Explorer interface {
	Policy
	Epsilon() float64
}
