// Package qlearning implements tabular Q-learning.
//
// Action values are stored in a table with one row per state and one
// column per action. The behaviour policy reads the same table that
// the learner updates, so every update is immediately reflected in the
// actions chosen.
package qlearning

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/mazeper/agent/tabular"
	"github.com/samuelfneumann/mazeper/agent/tabular/policy"
	"github.com/samuelfneumann/mazeper/environment"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/samuelfneumann/mazeper/utils/floatutils"
	"github.com/samuelfneumann/mazeper/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// explorer is a behaviour policy with a decaying exploration rate
type explorer interface {
	SelectAction(t ts.TimeStep) *mat.VecDense
	Eval()
	Train()
	IsEval() bool
	Epsilon() float64
	Decay()
}

// QLearning implements the tabular Q-learning algorithm
type QLearning struct {
	explorer

	values       *mat.Dense
	indexer      tabular.Indexer
	learningRate float64
	exploration  Exploration
	episodes     int
}

// New creates a new QLearning agent for env. All action values are
// initialized to zero.
func New(env environment.Environment, c Config,
	seed uint64) (*QLearning, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Discrete ||
		actionSpec.Shape.Len() != 1 {
		return nil, fmt.Errorf("new: actions must be discrete and scalar")
	}
	actions := int(actionSpec.UpperBound.AtVec(0)) + 1

	indexer, err := tabular.NewIndexer(env.ObservationSpec())
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	values := mat.NewDense(indexer.States(), actions, nil)

	decay := policy.Decay{Rate: c.EpsilonDecay, Min: c.MinEpsilon}
	var behaviour explorer
	switch c.exploration() {
	case CountBased:
		behaviour, err = policy.NewCountBased(values, indexer, c.Epsilon,
			decay, seed)
	default:
		behaviour, err = policy.NewEGreedy(values, indexer, c.Epsilon, decay,
			seed)
	}
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &QLearning{
		explorer:     behaviour,
		values:       values,
		indexer:      indexer,
		learningRate: c.LearningRate,
		exploration:  c.exploration(),
	}, nil
}

// target returns the bootstrapped target and the current estimate of
// the action value for t
func (q *QLearning) target(t ts.Transition) (target, estimate float64,
	row int, err error) {
	row, err = q.indexer.Index(t.State)
	if err != nil {
		return 0, 0, 0, err
	}
	_, cols := q.values.Dims()
	if t.Action < 0 || t.Action >= cols {
		return 0, 0, 0, fmt.Errorf("action %d out of range [0, %d)",
			t.Action, cols)
	}

	target = t.Reward
	if !t.Done {
		next, err := q.indexer.Index(t.NextState)
		if err != nil {
			return 0, 0, 0, err
		}
		maxNext, _ := floatutils.MaxSlice(q.values.RawRowView(next))
		target += t.Discount * maxNext
	}

	return target, q.values.At(row, t.Action), row, nil
}

// TdError returns the TD error of t under the current action values
func (q *QLearning) TdError(t ts.Transition) (float64, error) {
	target, estimate, _, err := q.target(t)
	if err != nil {
		return 0, fmt.Errorf("tdError: %w", err)
	}
	return target - estimate, nil
}

// Learn updates the action value of each transition in batch in order,
// scaling the step size of transition i by weights[i]. The absolute TD
// error of each transition before its update is returned. One step of
// the exploration schedule is applied per call.
func (q *QLearning) Learn(batch []ts.Transition,
	weights []float64) ([]float64, error) {
	if len(weights) != len(batch) {
		return nil, fmt.Errorf("learn: %d weights for %d transitions",
			len(weights), len(batch))
	}

	errs := make([]float64, len(batch))
	for i, t := range batch {
		target, estimate, row, err := q.target(t)
		if err != nil {
			return nil, fmt.Errorf("learn: %w", err)
		}

		delta := target - estimate
		q.values.Set(row, t.Action, estimate+q.learningRate*weights[i]*delta)
		errs[i] = math.Abs(delta)
	}

	q.explorer.Decay()
	return errs, nil
}

// EndEpisode counts the number of completed episodes
func (q *QLearning) EndEpisode() {
	q.episodes++
}

// Episodes returns the number of completed episodes
func (q *QLearning) Episodes() int {
	return q.episodes
}

// Value returns the action value of action in state obs
func (q *QLearning) Value(obs mat.Vector, action int) float64 {
	return q.values.At(q.indexer.MustIndex(obs), action)
}

// Greedy returns the greedy action in state obs, the lowest index among
// ties
func (q *QLearning) Greedy(obs mat.Vector) int {
	return matutils.MaxVec(q.values.RowView(q.indexer.MustIndex(obs)))
}

// Values returns the table of action values
func (q *QLearning) Values() mat.Matrix {
	return q.values
}

func (q *QLearning) String() string {
	return fmt.Sprintf("QLearning(%v, ε=%.3f)\n%v", q.exploration,
		q.Epsilon(), matutils.Format(q.values))
}
