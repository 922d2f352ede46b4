package expreplay

import (
	"sync"

	ts "github.com/samuelfneumann/mazeper/timestep"
)

// Synchronized wraps an ExperienceReplayer so that it can be shared by
// multiple goroutines. Every method holds a single mutex for its whole
// duration, so a Sample never observes a partially applied Add or
// priority update.
type Synchronized struct {
	mu       sync.Mutex
	replayer ExperienceReplayer
}

// NewSynchronized returns a goroutine-safe view of r. The caller must
// not use r directly afterwards.
func NewSynchronized(r ExperienceReplayer) *Synchronized {
	return &Synchronized{replayer: r}
}

// Add implements the ExperienceReplayer interface
func (s *Synchronized) Add(t ts.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayer.Add(t)
}

// Sample implements the ExperienceReplayer interface
func (s *Synchronized) Sample(batchSize int) ([]int, []ts.Transition,
	[]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayer.Sample(batchSize)
}

// UpdatePriorities implements the ExperienceReplayer interface
func (s *Synchronized) UpdatePriorities(indices []int,
	priorities []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayer.UpdatePriorities(indices, priorities)
}

// Len implements the ExperienceReplayer interface
func (s *Synchronized) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayer.Len()
}

// Capacity implements the ExperienceReplayer interface
func (s *Synchronized) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayer.Capacity()
}
