package tracker

import (
	ts "github.com/samuelfneumann/mazeper/timestep"
)

// Success tracks whether each episode reached the goal. Its Data is
// the cumulative success rate in percent after each episode.
type Success struct {
	successes int
	rates     []float64
	steps     []float64
	filename  string
}

// NewSuccess returns a new Success Tracker which will save its data at
// the specified location filename
func NewSuccess(filename string) *Success {
	return &Success{filename: filename}
}

// Track records the outcome of an episode on its last timestep
func (s *Success) Track(t ts.TimeStep) {
	if !t.Last() {
		return
	}

	steps := 0.0
	if t.Succeeded() {
		s.successes++
		steps = float64(t.Number)
	}
	s.steps = append(s.steps, steps)
	s.rates = append(s.rates,
		100*float64(s.successes)/float64(len(s.rates)+1))
}

// Data returns the cumulative success rate after each finished episode
func (s *Success) Data() []float64 {
	return s.rates
}

// Steps returns the length of each successful episode and 0 for each
// failed one
func (s *Success) Steps() []float64 {
	return s.steps
}

// Successes returns the number of successful episodes
func (s *Success) Successes() int {
	return s.successes
}

// Save saves the cumulative success rates to disk
func (s *Success) Save() error {
	return save(s.filename, s.rates)
}
