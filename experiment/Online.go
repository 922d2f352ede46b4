package experiment

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/agent"
	env "github.com/samuelfneumann/mazeper/environment"
	"github.com/samuelfneumann/mazeper/environment/maze"
	"github.com/samuelfneumann/mazeper/experiment/tracker"
	"github.com/samuelfneumann/mazeper/expreplay"
	ts "github.com/samuelfneumann/mazeper/timestep"
	"github.com/samuelfneumann/mazeper/utils/progressbar"
)

// Episode describes a single finished episode
type Episode struct {
	Return  float64
	Steps   int
	End     ts.EndType
	Path    []maze.Point
	Updates int
}

// Succeeded returns whether the episode reached the goal
func (e Episode) Succeeded() bool {
	return e.End == ts.TerminalStateReached
}

// Summary describes a finished experiment
type Summary struct {
	Episodes    int
	Successes   int
	SuccessRate float64

	// Best is the best successful episode under the experiment's
	// Objective. Found is false if no episode succeeded.
	Best  Episode
	Found bool

	Epsilon float64
	Layout  *maze.Layout
}

// Online is an Experiment that runs an agent online, learning from
// transitions sampled from a replay buffer after every environment
// step. No offline evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	buffer expreplay.ExperienceReplayer

	batchSize  int
	minSamples int
	episodes   int
	current    int
	trackers   []tracker.Tracker

	objective Objective
	best      Episode
	found     bool
	successes int

	logger   zerolog.Logger
	logEvery int
	interval struct {
		ret       float64
		successes int
		episodes  int
	}
	bar *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent which learns from buffer. The
// episodes parameter determines how many episodes the experiment is
// run for, and t determines what data is tracked. By default one
// transition is sampled per update as soon as one is stored, and the
// shortest successful path is kept as the best.
func NewOnline(e env.Environment, a agent.Agent,
	buffer expreplay.ExperienceReplayer, episodes int,
	t ...tracker.Tracker) *Online {
	return &Online{
		Environment: e,
		Agent:       a,
		buffer:      buffer,
		batchSize:   1,
		minSamples:  1,
		episodes:    episodes,
		trackers:    t,
		objective:   Shortest,
		logger:      zerolog.Nop(),
	}
}

// SetBatch sets the number of transitions sampled per update and the
// number which must be stored before updates begin
func (o *Online) SetBatch(batchSize, minSamples int) {
	o.batchSize = batchSize
	o.minSamples = max(batchSize, minSamples)
}

// SetObjective sets how the best path is chosen. The empty Objective
// keeps the current one.
func (o *Online) SetObjective(obj Objective) {
	if obj != "" {
		o.objective = obj
	}
}

// SetLogger sets the logger which receives a summary every logEvery
// episodes. If logEvery is 0, only new best paths are logged.
func (o *Online) SetLogger(logger zerolog.Logger, logEvery int) {
	o.logger = logger
	o.logEvery = logEvery
}

// ShowProgress prints a progress bar of the finished episodes to out
func (o *Online) ShowProgress(out io.Writer) {
	o.bar = progressbar.NewManualProgressBar(out, 40, o.episodes)
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Buffer returns the replay buffer of the experiment
func (o *Online) Buffer() expreplay.ExperienceReplayer {
	return o.buffer
}

// Epsilon returns the exploration rate of the agent, or 0 if the agent
// does not report one
func (o *Online) Epsilon() float64 {
	if e, ok := o.Agent.(agent.Explorer); ok {
		return e.Epsilon()
	}
	return 0
}

// Best returns the best successful episode so far and whether any
// episode has succeeded
func (o *Online) Best() (Episode, bool) {
	return o.best, o.found
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (Episode, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return Episode{}, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)

	ep := Episode{Path: []maze.Point{maze.PositionOf(step.Observation)}}
	for !step.Last() {
		action := o.Agent.SelectAction(step)
		next, _, err := o.Environment.Step(action)
		if err != nil {
			return Episode{}, fmt.Errorf("runEpisode: %w", err)
		}

		t := ts.NewTransition(step, int(action.AtVec(0)), next)
		if err := o.buffer.Add(t); err != nil {
			return Episode{}, fmt.Errorf("runEpisode: %w", err)
		}

		if o.buffer.Len() >= o.minSamples {
			if err := o.learn(); err != nil {
				return Episode{}, fmt.Errorf("runEpisode: %w", err)
			}
			ep.Updates++
		}
		o.track(next)

		ep.Return += next.Reward
		ep.Path = append(ep.Path, maze.PositionOf(next.Observation))
		step = next
	}
	o.Agent.EndEpisode()

	ep.Steps = step.Number
	ep.End = step.EndType()
	o.finish(ep)

	return ep, nil
}

// learn performs a single update from a batch of the replay buffer and
// reprioritizes the sampled transitions by their TD errors
func (o *Online) learn() error {
	indices, batch, weights, err := o.buffer.Sample(o.batchSize)
	if err != nil {
		return err
	}

	errs, err := o.Agent.Learn(batch, weights)
	if err != nil {
		return err
	}

	return o.buffer.UpdatePriorities(indices, errs)
}

// finish records a finished episode
func (o *Online) finish(ep Episode) {
	o.current++
	o.interval.episodes++
	o.interval.ret += ep.Return

	o.logger.Debug().
		Int("episode", o.current).
		Float64("return", ep.Return).
		Int("steps", ep.Steps).
		Stringer("end", ep.End).
		Int("updates", ep.Updates).
		Msg("episode finished")

	if ep.Succeeded() {
		o.successes++
		o.interval.successes++

		if !o.found || o.better(ep) {
			o.best, o.found = ep, true
			o.logger.Info().
				Int("episode", o.current).
				Int("steps", ep.Steps).
				Float64("return", ep.Return).
				Msg("new best path")
		}
	}

	if o.logEvery > 0 && o.current%o.logEvery == 0 {
		n := float64(o.interval.episodes)
		o.logger.Info().
			Int("episode", o.current).
			Float64("avg_return", o.interval.ret/n).
			Float64("success_rate", float64(o.interval.successes)/n).
			Float64("epsilon", o.Epsilon()).
			Int("buffered", o.buffer.Len()).
			Msg("progress")
		o.interval.ret, o.interval.successes, o.interval.episodes = 0, 0, 0
	}

	if o.bar != nil {
		o.bar.Increment()
		o.bar.Display()
	}
}

// better returns whether ep is better than the best episode so far
func (o *Online) better(ep Episode) bool {
	if o.objective == HighestReturn {
		return ep.Return > o.best.Return
	}
	return ep.Steps < o.best.Steps
}

// Run runs all remaining episodes of the experiment. It stops early
// with the context's error if ctx is cancelled between episodes.
func (o *Online) Run(ctx context.Context) (Summary, error) {
	if o.bar != nil {
		defer o.bar.Close()
	}

	for o.current < o.episodes {
		if err := ctx.Err(); err != nil {
			return o.Summary(), err
		}
		if _, err := o.RunEpisode(); err != nil {
			return o.Summary(), fmt.Errorf("run: episode %d: %w", o.current,
				err)
		}
	}

	return o.Summary(), nil
}

// Summary summarizes the episodes run so far
func (o *Online) Summary() Summary {
	s := Summary{
		Episodes:  o.current,
		Successes: o.successes,
		Best:      o.best,
		Found:     o.found,
		Epsilon:   o.Epsilon(),
	}
	if o.current > 0 {
		s.SuccessRate = float64(o.successes) / float64(o.current)
	}
	if m, ok := o.Environment.(interface{ Layout() *maze.Layout }); ok {
		s.Layout = m.Layout()
	}
	return s
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
