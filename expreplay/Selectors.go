package expreplay

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// SelectorType determines how cumulative priority values are drawn
// when sampling a prioritized buffer
type SelectorType string

const (
	Stratified   SelectorType = "Stratified"
	Proportional SelectorType = "Proportional"
)

// Selector implements functionality for choosing the cumulative
// priority values at which a prioritized buffer is sampled
type Selector interface {
	// choose returns n values in [0, total)
	choose(total float64, n int) []float64

	// Type returns the kind of Selector
	Type() SelectorType
}

// CreateSelector is a factory for creating Selectors from their type
func CreateSelector(t SelectorType, seed uint64) (Selector, error) {
	switch t {
	case Stratified, "":
		return NewStratifiedSelector(seed), nil

	case Proportional:
		return NewProportionalSelector(seed), nil

	default:
		return nil, fmt.Errorf("createSelector: unknown selector type %q", t)
	}
}

// stratifiedSelector splits the cumulative range into equal segments
// and draws one value uniformly from each
type stratifiedSelector struct {
	src rand.Source
}

// NewStratifiedSelector returns a Selector which draws one value from
// each of n equal segments of [0, total)
func NewStratifiedSelector(seed uint64) Selector {
	return &stratifiedSelector{src: rand.NewPCG(seed, seed^0x5eed)}
}

// Type implements the Selector interface
func (s *stratifiedSelector) Type() SelectorType {
	return Stratified
}

func (s *stratifiedSelector) choose(total float64, n int) []float64 {
	values := make([]float64, n)
	for i, segment := range segments(total, n) {
		values[i] = distuv.Uniform{
			Min: segment.Min,
			Max: segment.Max,
			Src: s.src,
		}.Rand()
	}
	return values
}

// segments splits [0, total) into n equal intervals
func segments(total float64, n int) []r1.Interval {
	width := total / float64(n)
	out := make([]r1.Interval, n)
	for i := range out {
		out[i] = r1.Interval{
			Min: width * float64(i),
			Max: width * float64(i+1),
		}
	}
	out[n-1].Max = total
	return out
}

// proportionalSelector draws every value independently from the
// whole range
type proportionalSelector struct {
	uniform distuv.Uniform
}

// NewProportionalSelector returns a Selector which draws n independent
// values uniformly from [0, total)
func NewProportionalSelector(seed uint64) Selector {
	return &proportionalSelector{
		uniform: distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: rand.NewPCG(seed, seed^0x5eed),
		},
	}
}

// Type implements the Selector interface
func (p *proportionalSelector) Type() SelectorType {
	return Proportional
}

func (p *proportionalSelector) choose(total float64, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = p.uniform.Rand() * total
	}
	return values
}
