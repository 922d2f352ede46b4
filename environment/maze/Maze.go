// Package maze implements grid maze environments with walls, traps and
// an optional key that must be collected before the exit opens.
package maze

import (
	"fmt"

	env "github.com/samuelfneumann/mazeper/environment"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/mat"
)

// Action is a move in one of the four cardinal directions
type Action int

const (
	Up Action = iota
	Right
	Down
	Left
)

// Actions is the number of actions available in a maze
const Actions = 4

var moves = [Actions]Point{
	Up:    {0, -1},
	Right: {1, 0},
	Down:  {0, 1},
	Left:  {-1, 0},
}

func (a Action) String() string {
	switch a {
	case Up:
		return "Up"
	case Right:
		return "Right"
	case Down:
		return "Down"
	case Left:
		return "Left"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Task is an env.Task which reads the state of the Maze it is
// registered with to compute rewards and episode ends
type Task interface {
	env.Task
	Register(m *Maze)
}

// Maze is a grid maze environment. Observations are the agent's (x, y)
// position, with a third component that is 1 once the key has been
// collected in keyed mazes. Moves into walls or off the grid leave the
// agent in place.
type Maze struct {
	Task
	layout *Layout

	position  Point
	hasKey    bool
	hadKey    bool
	attempted Point

	discount    float64
	currentStep ts.TimeStep
}

// New returns a new Maze with the given Task and Layout, as well as
// the first timestep of the first episode
func New(t Task, layout *Layout, discount float64) (*Maze, ts.TimeStep,
	error) {
	if discount < 0 || discount > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: discount must be in "+
			"[0, 1], have %v", discount)
	}
	if !layout.Passable(layout.Start) || layout.At(layout.Start) == Trap {
		return nil, ts.TimeStep{}, fmt.Errorf("new: start %v is not a free "+
			"cell", layout.Start)
	}

	m := &Maze{
		Task:     t,
		layout:   layout,
		discount: discount,
	}
	t.Register(m)

	step, err := m.Reset()
	return m, step, err
}

// Reset resets the agent to the start of the maze and drops the key
func (m *Maze) Reset() (ts.TimeStep, error) {
	m.position = m.layout.Start
	m.hasKey = false
	m.hadKey = false
	m.attempted = m.position

	step := ts.New(ts.First, 0, m.discount, m.Start(), 0)
	m.currentStep = step

	return step, nil
}

// Step takes one action in the maze
func (m *Maze) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if !m.ActionSpec().Contains(action) {
		return ts.TimeStep{}, false, fmt.Errorf("step: action must be one "+
			"of %d discrete actions", Actions)
	}
	a := int(action.AtVec(0))
	if m.currentStep.Last() {
		return ts.TimeStep{}, false, fmt.Errorf("step: episode has ended, " +
			"call Reset")
	}

	state := m.CurrentTimeStep().Observation
	m.hadKey = m.hasKey
	m.attempted = m.position.Add(moves[a])
	if m.layout.Passable(m.attempted) {
		m.position = m.attempted
		if m.layout.isKey(m.position) {
			m.hasKey = true
		}
	}

	nextState := m.Observe(m.position, m.hasKey)
	reward := m.GetReward(state, action, nextState)
	nextStep := ts.New(ts.Mid, reward, m.discount, nextState,
		m.CurrentTimeStep().Number+1)

	last := m.End(&nextStep)
	m.currentStep = nextStep

	return nextStep, last, nil
}

// PositionDims is the number of leading observation components which
// hold the agent's position
const PositionDims = 2

// Observe returns the observation of an agent at p which does or does
// not hold the key
func (m *Maze) Observe(p Point, hasKey bool) *mat.VecDense {
	if !m.layout.Keyed() {
		return mat.NewVecDense(2, []float64{float64(p.X), float64(p.Y)})
	}

	k := 0.0
	if hasKey {
		k = 1.0
	}
	return mat.NewVecDense(3, []float64{float64(p.X), float64(p.Y), k})
}

// PositionOf returns the position encoded in an observation
func PositionOf(obs mat.Vector) Point {
	return Point{int(obs.AtVec(0)), int(obs.AtVec(1))}
}

// KeyOf returns whether an observation encodes holding the key
func KeyOf(obs mat.Vector) bool {
	return obs.Len() > 2 && obs.AtVec(2) > 0
}

// CurrentTimeStep returns the last timestep of the environment
func (m *Maze) CurrentTimeStep() ts.TimeStep {
	return m.currentStep
}

// Layout returns the maze layout
func (m *Maze) Layout() *Layout {
	return m.layout
}

// Position returns the current position of the agent
func (m *Maze) Position() Point {
	return m.position
}

// HasKey returns whether the agent holds the key
func (m *Maze) HasKey() bool {
	return m.hasKey
}

// HadKey returns whether the agent held the key before the last step
func (m *Maze) HadKey() bool {
	return m.hadKey
}

// Attempted returns the cell the last action tried to move into. It
// differs from Position when the move was blocked.
func (m *Maze) Attempted() Point {
	return m.attempted
}

// Bumped returns whether the last action was blocked by a wall or the
// edge of the maze
func (m *Maze) Bumped() bool {
	return m.attempted != m.position
}

// ActionSpec returns the action specification of the environment
func (m *Maze) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0.0})
	upperBound := mat.NewVecDense(1, []float64{float64(Actions - 1)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound, env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (m *Maze) ObservationSpec() env.Spec {
	upper := []float64{float64(m.layout.Width - 1),
		float64(m.layout.Height - 1)}
	if m.layout.Keyed() {
		upper = append(upper, 1)
	}

	shape := mat.NewVecDense(len(upper), nil)
	lowerBound := mat.NewVecDense(len(upper), nil)
	upperBound := mat.NewVecDense(len(upper), upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Discrete)
}

// DiscountSpec returns the discount specification of the environment
func (m *Maze) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{m.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, lowerBound,
		env.Continuous)
}

func (m *Maze) String() string {
	return m.layout.draw(&m.position)
}
