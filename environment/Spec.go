package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what a Spec describes: the actions, observations,
// discounts, or rewards of an environment
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	case Reward:
		return "Reward"
	default:
		return fmt.Sprintf("SpecType(%d)", int(s))
	}
}

// Cardinality determines whether the values of a Spec are discrete or
// continuous
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec describes the shape and bounds of the actions, observations,
// discounts, or rewards of an environment. Bounds are inclusive.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new Spec. NewSpec panics if the bounds do not
// have the length of shape.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("newSpec: %v shape length %v must match lower "+
			"bound length %v", t, shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("newSpec: %v shape length %v must match upper "+
			"bound length %v", t, shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// Contains returns whether v has the length of the Spec and lies
// within its bounds. Discrete Specs also require integral components.
func (s Spec) Contains(v mat.Vector) bool {
	if v == nil || v.Len() != s.Shape.Len() {
		return false
	}

	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if x < s.LowerBound.AtVec(i) || x > s.UpperBound.AtVec(i) {
			return false
		}
		if s.Cardinality == Discrete && x != float64(int(x)) {
			return false
		}
	}
	return true
}
