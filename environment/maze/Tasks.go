package maze

import (
	"math"

	env "github.com/samuelfneumann/mazeper/environment"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"gonum.org/v1/gonum/mat"
)

// base implements the parts of a Task shared by all maze tasks. An
// episode ends in a trap, at the goal (holding the key if the maze has
// one) or at the step limit, checked in that order.
type base struct {
	maze      *Maze
	stepLimit *env.StepLimit
	ender     env.Ender
}

func newBase(cutoff int) base {
	return base{stepLimit: env.NewStepLimit(cutoff)}
}

// Register registers the Maze with the Task
func (b *base) Register(m *Maze) {
	b.maze = m

	trapped := env.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return m.layout.At(PositionOf(obs)) == Trap
	}, ts.Trapped)
	goal := env.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return b.AtGoal(obs)
	}, ts.TerminalStateReached)

	b.ender = env.Enders{trapped, goal, b.stepLimit}
}

// Start returns the starting observation of the maze
func (b *base) Start() *mat.VecDense {
	return b.maze.Observe(b.maze.layout.Start, false)
}

// End implements the env.Ender interface
func (b *base) End(t *ts.TimeStep) bool {
	return b.ender.End(t)
}

// AtGoal returns whether state is at the goal, holding the key if the
// maze has one
func (b *base) AtGoal(state mat.Matrix) bool {
	rows, cols := state.Dims()
	if rows < 2 || cols != 1 {
		return false
	}

	p := Point{int(state.At(0, 0)), int(state.At(1, 0))}
	if p != b.maze.layout.Goal {
		return false
	}
	return !b.maze.layout.Keyed() || (rows > 2 && state.At(2, 0) > 0)
}

// Cutoff returns the maximum number of steps in an episode
func (b *base) Cutoff() int {
	return b.stepLimit.EpisodeSteps()
}

func rewardSpec(min, max float64) env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{min})
	upperBound := mat.NewVecDense(1, []float64{max})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

const (
	TrapReward          = -30.0
	ExitBaseReward      = 100.0
	ExitRewardPerColumn = 5.0
	DistancePenalty     = 0.3
	NewCellBonus        = 1.5
)

// Explore rewards reaching the exit in proportion to the width of the
// maze and punishes falling into traps. Every other step is penalized
// by 0.3 times the Manhattan distance from the exit, with a bonus of
// 1.5 the first time a cell is entered. Cells stay explored across
// episodes.
type Explore struct {
	base
	visited map[Point]bool
}

// NewExplore returns a new Explore Task with episodes of at most
// cutoff steps
func NewExplore(cutoff int) *Explore {
	return &Explore{
		base:    newBase(cutoff),
		visited: make(map[Point]bool),
	}
}

// GetReward implements the env.Task interface
func (e *Explore) GetReward(_, _, nextState mat.Vector) float64 {
	p := PositionOf(nextState)
	switch {
	case e.AtGoal(nextState):
		return e.exitReward()

	case e.maze.layout.At(p) == Trap:
		return TrapReward
	}

	reward := -DistancePenalty * float64(p.Manhattan(e.maze.layout.Goal))
	if !e.visited[p] {
		e.visited[p] = true
		reward += NewCellBonus
	}
	return reward
}

func (e *Explore) exitReward() float64 {
	return ExitBaseReward + ExitRewardPerColumn*float64(e.maze.layout.Width)
}

// Explored returns the number of distinct cells entered so far
func (e *Explore) Explored() int {
	return len(e.visited)
}

// Min returns the minimum attainable reward over all timesteps
func (e *Explore) Min() float64 {
	l := e.maze.layout
	far := float64((l.Width - 1) + (l.Height - 1))
	return math.Min(TrapReward, -DistancePenalty*far)
}

// Max returns the maximum attainable reward over all timesteps
func (e *Explore) Max() float64 {
	return e.exitReward()
}

// RewardSpec returns the reward specification of the Task
func (e *Explore) RewardSpec() env.Spec {
	return rewardSpec(e.Min(), e.Max())
}

const (
	GoalReward    = 10.0
	BumpReward    = -5.0
	CloserReward  = 0.3
	FartherReward = -0.5
	StayReward    = -0.1
)

// Approach rewards reaching the goal and moving closer to it in
// Manhattan distance, and punishes walking into walls and moving away
// from the goal.
type Approach struct {
	base
}

// NewApproach returns a new Approach Task with episodes of at most
// cutoff steps
func NewApproach(cutoff int) *Approach {
	return &Approach{newBase(cutoff)}
}

// GetReward implements the env.Task interface
func (a *Approach) GetReward(state, _, nextState mat.Vector) float64 {
	if a.AtGoal(nextState) {
		return GoalReward
	}
	if a.maze.Bumped() && a.maze.layout.At(a.maze.Attempted()) == Wall &&
		a.maze.layout.In(a.maze.Attempted()) {
		return BumpReward
	}

	goal := a.maze.layout.Goal
	before := PositionOf(state).Manhattan(goal)
	after := PositionOf(nextState).Manhattan(goal)
	switch {
	case after < before:
		return CloserReward
	case after > before:
		return FartherReward
	default:
		return StayReward
	}
}

// Min returns the minimum attainable reward over all timesteps
func (a *Approach) Min() float64 { return BumpReward }

// Max returns the maximum attainable reward over all timesteps
func (a *Approach) Max() float64 { return GoalReward }

// RewardSpec returns the reward specification of the Task
func (a *Approach) RewardSpec() env.Spec {
	return rewardSpec(a.Min(), a.Max())
}

const (
	StuckReward       = -10.0
	UnlockReward      = 10.0
	SpeedBonus        = 5.0
	KeyReward         = 5.0
	LockedGoalReward  = -3.0
	StepPenalty       = -0.1
	TowardKeyReward   = 1.8
	TowardGoalReward  = 2.0
	AwayReward        = -1.8
	NoProgressPenalty = -10.0
)

// KeyGate guides the agent first to the key and then to the goal by
// the change in shortest path distance to its current target. Paths
// to either target never pass through the key cell.
//
// Staying in place costs 10. Reaching the goal with the key earns 10
// plus up to 5 more the sooner it happens. Picking up the key earns 5
// and stepping on the goal without it costs 3.
type KeyGate struct {
	base
}

// NewKeyGate returns a new KeyGate Task with episodes of at most
// cutoff steps
func NewKeyGate(cutoff int) *KeyGate {
	return &KeyGate{newBase(cutoff)}
}

// GetReward implements the env.Task interface
func (k *KeyGate) GetReward(state, _, nextState mat.Vector) float64 {
	from, to := PositionOf(state), PositionOf(nextState)
	layout := k.maze.layout
	key, _ := layout.Key()

	if from == to {
		return StuckReward
	}

	if k.AtGoal(nextState) {
		steps := float64(k.maze.CurrentTimeStep().Number)
		return UnlockReward + (1-steps/float64(k.Cutoff()))*SpeedBonus
	}

	holding := KeyOf(nextState)
	if layout.Keyed() && to == key && !KeyOf(state) {
		return KeyReward
	}
	if to == layout.Goal && !holding {
		return LockedGoalReward
	}

	target, progress := key, TowardKeyReward
	if holding || !layout.Keyed() {
		target, progress = layout.Goal, TowardGoalReward
	}

	var through []Point
	if layout.Keyed() {
		through = []Point{key}
	}
	before := layout.Distance(from, target, through...)
	after := layout.Distance(to, target, through...)

	switch {
	case after < before:
		return progress + StepPenalty
	case after > before:
		return AwayReward + StepPenalty
	default:
		return NoProgressPenalty + StepPenalty
	}
}

// Min returns the minimum attainable reward over all timesteps
func (k *KeyGate) Min() float64 { return NoProgressPenalty + StepPenalty }

// Max returns the maximum attainable reward over all timesteps
func (k *KeyGate) Max() float64 { return UnlockReward + SpeedBonus }

// RewardSpec returns the reward specification of the Task
func (k *KeyGate) RewardSpec() env.Spec {
	return rewardSpec(k.Min(), k.Max())
}
