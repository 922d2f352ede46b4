package timestep

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single recorded (state, action, reward, next state,
// done) step of the agent-environment interaction.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	Discount  float64
	NextState *mat.VecDense
	Done      bool
}

// NewTransition builds the Transition from step to next caused by
// action. The reward and discount are taken from next, and Done is set
// only when next ended the episode in a terminal state. Episodes cut
// off by a step limit are not terminal.
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	done := next.Last() && next.EndType() != Timeout

	return Transition{
		State:     mat.VecDenseCopyOf(step.Observation),
		Action:    action,
		Reward:    next.Reward,
		Discount:  next.Discount,
		NextState: mat.VecDenseCopyOf(next.Observation),
		Done:      done,
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | %v --(%d, %.2f)--> %v  |  Done: %v",
		Key(t.State), t.Action, t.Reward, Key(t.NextState), t.Done)
}

// StateKey is a comparable representation of a fixed-arity coordinate
// observation
type StateKey string

// Key returns the StateKey of a coordinate vector. Components are
// truncated to integers, so (1.0, 2.0) and (1, 2) share a key.
func Key(v mat.Vector) StateKey {
	if v == nil {
		return ""
	}
	return KeyN(v, v.Len())
}

// KeyN returns the StateKey of the first n components of v. If n is
// not positive or exceeds the length of v, every component is used.
func KeyN(v mat.Vector, n int) StateKey {
	if v == nil {
		return ""
	}
	if n <= 0 || n > v.Len() {
		n = v.Len()
	}

	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(v.AtVec(i))))
	}
	b.WriteByte(')')

	return StateKey(b.String())
}
