// Package sumtree implements a fixed-capacity sum-tree, a complete
// binary tree whose leaves hold priorities and whose internal nodes
// hold the sum of their children. A sum-tree supports O(log n) point
// updates and O(log n) retrieval of the leaf whose cumulative priority
// range contains some value, which is what proportional prioritized
// sampling needs.
//
// The tree is stored as a flat slice of 2*capacity-1 nodes. Node i has
// children 2i+1 and 2i+2 and parent (i-1)/2. The last capacity nodes
// are leaves, and leaf capacity-1+j holds the priority of payload j.
//
// A SumTree is not safe for concurrent use.
package sumtree

import (
	"fmt"
	"math"
)

// SumTree is a sum-tree over payloads of type T. Payloads are written
// into a circular buffer of slots; once the tree is full, each Add
// overwrites the oldest slot and its priority.
type SumTree[T any] struct {
	capacity int
	tree     []float64
	data     []T

	writePos int
	size     int
}

// New returns a new SumTree with room for capacity payloads. All
// priorities start at zero.
func New[T any](capacity int) (*SumTree[T], error) {
	if capacity <= 0 {
		return nil, &Error{
			Op:  "new",
			Err: fmt.Errorf("%w: have %d", ErrCapacity, capacity),
		}
	}

	return &SumTree[T]{
		capacity: capacity,
		tree:     make([]float64, 2*capacity-1),
		data:     make([]T, capacity),
	}, nil
}

// Capacity returns the number of leaves in the tree
func (s *SumTree[T]) Capacity() int {
	return s.capacity
}

// Len returns the number of populated slots. Len grows with each Add
// until it reaches Capacity and then stays there.
func (s *SumTree[T]) Len() int {
	return s.size
}

// Total returns the sum of all leaf priorities
func (s *SumTree[T]) Total() float64 {
	return s.tree[0]
}

// Add stores payload in the next slot with the given priority and
// returns the tree index of the slot's leaf. When the tree is full, the
// oldest payload is overwritten.
//
// Add panics if priority is negative, NaN or infinite.
func (s *SumTree[T]) Add(priority float64, payload T) int {
	if !validPriority(priority) {
		panic(fmt.Sprintf("add: %v: %v", ErrPriority, priority))
	}

	leaf := s.LeafIndex(s.writePos)
	s.data[s.writePos] = payload
	s.set(leaf, priority)

	s.writePos = (s.writePos + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}

	return leaf
}

// Update sets the priority of the leaf at tree index leaf and
// propagates the change to the root
func (s *SumTree[T]) Update(leaf int, priority float64) error {
	if !s.isLeaf(leaf) {
		return &Error{
			Op: "update",
			Err: fmt.Errorf("%w: leaf %d not in [%d, %d)", ErrIndexRange,
				leaf, s.capacity-1, len(s.tree)),
		}
	}
	if !validPriority(priority) {
		return &Error{
			Op:  "update",
			Err: fmt.Errorf("%w: have %v", ErrPriority, priority),
		}
	}

	s.set(leaf, priority)
	return nil
}

// set writes priority into leaf and adds the change to every ancestor
func (s *SumTree[T]) set(leaf int, priority float64) {
	change := priority - s.tree[leaf]
	s.tree[leaf] = priority

	for i := leaf; i > 0; {
		i = (i - 1) / 2
		s.tree[i] += change
	}
}

// Get returns the leaf whose cumulative priority range contains v,
// along with the leaf's priority and payload. Walking down from the
// root, v goes to the left child when v <= the left child's sum, and
// otherwise v minus the left sum goes to the right child, so a value
// exactly on a boundary resolves to the lower-indexed leaf.
//
// Get returns an error if the tree holds no priority or v lies outside
// [0, Total()].
func (s *SumTree[T]) Get(v float64) (leaf int, priority float64, payload T,
	err error) {
	if !(s.Total() > 0) {
		return 0, 0, payload, &Error{Op: "get", Err: ErrEmpty}
	}
	if v < 0 || v > s.Total() {
		return 0, 0, payload, &Error{
			Op: "get",
			Err: fmt.Errorf("%w: value %v not in [0, %v]", ErrValueRange, v,
				s.Total()),
		}
	}

	i := 0
	for {
		left := 2*i + 1
		if left >= len(s.tree) {
			break
		}
		right := left + 1

		switch {
		case s.tree[right] <= 0:
			// Rounding in the sums can leave v slightly above the left
			// subtree's total when the right subtree is empty
			i = left
		case v <= s.tree[left] && s.tree[left] > 0:
			i = left
		default:
			v -= s.tree[left]
			i = right
		}
	}

	return i, s.tree[i], s.data[s.DataIndex(i)], nil
}

// Priority returns the priority stored at the leaf with tree index leaf
func (s *SumTree[T]) Priority(leaf int) (float64, error) {
	if !s.isLeaf(leaf) {
		return 0, &Error{
			Op:  "priority",
			Err: fmt.Errorf("%w: leaf %d", ErrIndexRange, leaf),
		}
	}
	return s.tree[leaf], nil
}

// Payload returns the payload stored in slot
func (s *SumTree[T]) Payload(slot int) (T, error) {
	if slot < 0 || slot >= s.capacity {
		var zero T
		return zero, &Error{
			Op:  "payload",
			Err: fmt.Errorf("%w: slot %d", ErrIndexRange, slot),
		}
	}
	return s.data[slot], nil
}

// Node returns the value of node i of the flattened tree. It is mainly
// useful for inspecting internal sums.
func (s *SumTree[T]) Node(i int) float64 {
	return s.tree[i]
}

// Nodes returns the number of nodes in the tree, 2*Capacity()-1
func (s *SumTree[T]) Nodes() int {
	return len(s.tree)
}

// LeafIndex converts a slot index into the tree index of its leaf
func (s *SumTree[T]) LeafIndex(slot int) int {
	return slot + s.capacity - 1
}

// DataIndex converts the tree index of a leaf into its slot index
func (s *SumTree[T]) DataIndex(leaf int) int {
	return leaf - s.capacity + 1
}

func validPriority(p float64) bool {
	return p >= 0 && !math.IsInf(p, 1)
}

func (s *SumTree[T]) isLeaf(i int) bool {
	return i >= s.capacity-1 && i < len(s.tree)
}

func (s *SumTree[T]) String() string {
	return fmt.Sprintf("SumTree | Total: %.4f  |  Size: %d/%d  |  Next: %d",
		s.Total(), s.size, s.capacity, s.writePos)
}
