package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/agent/tabular/qlearning"
	"github.com/samuelfneumann/mazeper/environment/envconfig"
	"github.com/samuelfneumann/mazeper/experiment/tracker"
	"github.com/samuelfneumann/mazeper/expreplay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func plainConfig(t *testing.T, episodes int) Config {
	t.Helper()
	ec, err := envconfig.DefaultConfig(envconfig.Plain)
	require.NoError(t, err)

	return Config{
		Episodes:   episodes,
		Objective:  Shortest,
		EnvConf:    ec,
		AgentConf:  agent.NewTypedConfig(qlearning.PlainConfig()),
		ReplayConf: expreplay.OnlineConfig(),
	}
}

func perConfig(t *testing.T, episodes int) Config {
	t.Helper()
	ec, err := envconfig.DefaultConfig(envconfig.PER)
	require.NoError(t, err)

	replay := expreplay.DefaultConfig()
	replay.Capacity = 500
	replay.Decaying = false

	return Config{
		Episodes:   episodes,
		Objective:  Shortest,
		EnvConf:    ec,
		AgentConf:  agent.NewTypedConfig(qlearning.PERConfig()),
		ReplayConf: replay,
	}
}

func TestOnlinePlain(t *testing.T) {
	dir := t.TempDir()
	returns := tracker.NewReturn(filepath.Join(dir, "returns.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, "lengths.bin"))
	success := tracker.NewSuccess(filepath.Join(dir, "success.bin"))

	o, stats, err := plainConfig(t, 200).CreateExp(1, zerolog.Nop(), returns,
		lengths, success)
	require.NoError(t, err)
	assert.True(t, stats.Solvable)

	s, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, s.Episodes)
	assert.Len(t, returns.Data(), 200)
	assert.Len(t, lengths.Data(), 200)
	assert.Equal(t, success.Successes(), s.Successes)
	assert.InDelta(t, float64(s.Successes)/200, s.SuccessRate, 1e-12)
	require.NotNil(t, s.Layout)

	assert.Equal(t, s.Successes > 0, s.Found)
	if s.Found {
		assert.True(t, s.Best.Succeeded())
		assert.Len(t, s.Best.Path, s.Best.Steps+1)
		assert.Equal(t, s.Layout.Start, s.Best.Path[0])
		assert.Equal(t, s.Layout.Goal, s.Best.Path[len(s.Best.Path)-1])
		for _, l := range success.Steps() {
			if l > 0 {
				assert.GreaterOrEqual(t, l, float64(s.Best.Steps))
			}
		}
	}

	require.NoError(t, o.Save())
	data, err := tracker.LoadData(filepath.Join(dir, "returns.bin"))
	require.NoError(t, err)
	assert.Equal(t, returns.Data(), data)
}

func TestOnlineDeterministic(t *testing.T) {
	run := func() Summary {
		o, _, err := perConfig(t, 15).CreateExp(7, zerolog.Nop())
		require.NoError(t, err)
		s, err := o.Run(context.Background())
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, run(), run())
}

func TestOnlineUpdatesAfterMinSamples(t *testing.T) {
	o, _, err := perConfig(t, 1).CreateExp(3, zerolog.Nop())
	require.NoError(t, err)

	ep, err := o.RunEpisode()
	require.NoError(t, err)
	assert.Equal(t, max(0, ep.Steps-31), ep.Updates)
	assert.Equal(t, ep.Steps, o.Buffer().Len())
	assert.InDelta(t, math.Pow(0.995, float64(ep.Updates)), o.Epsilon(), 1e-9)
}

func TestOnlineCancelled(t *testing.T) {
	o, _, err := plainConfig(t, 10).CreateExp(1, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := o.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, s.Episodes)
}

func TestOnlineLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	c := plainConfig(t, 20)
	c.LogEvery = 10

	o, _, err := c.CreateExp(1, zerolog.New(&buf))
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`"message":"progress"`)))
}

func TestKeyExperimentParquet(t *testing.T) {
	ec, err := envconfig.DefaultConfig(envconfig.Key)
	require.NoError(t, err)
	ec.EpisodeCutoff = 60

	replay := expreplay.DefaultConfig()
	replay.Capacity = 200
	c := Config{
		Episodes:   5,
		Objective:  HighestReturn,
		EnvConf:    ec,
		AgentConf:  agent.NewTypedConfig(qlearning.KeyConfig()),
		ReplayConf: replay,
	}

	filename := filepath.Join(t.TempDir(), "episodes.parquet")
	o, _, err := c.CreateExp(5, zerolog.Nop())
	require.NoError(t, err)
	o.Register(tracker.NewParquet(filename, "run", func() (float64, int) {
		return o.Epsilon(), o.Buffer().Len()
	}))

	s, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.Save())

	rows, err := tracker.LoadEpisodes(filename)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, int32(i), row.Episode)
		assert.LessOrEqual(t, row.BufferSize, int32(200))
		assert.LessOrEqual(t, row.Steps, int32(60))
	}
	assert.Equal(t, 5, s.Episodes)
	assert.Equal(t, s.Successes > 0, s.Found)

	// The last row is recorded after the final step's insert and update
	last := rows[len(rows)-1]
	assert.Equal(t, o.Epsilon(), last.Epsilon)
	assert.Equal(t, int32(o.Buffer().Len()), last.BufferSize)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, plainConfig(t, 1).Validate())

	c := plainConfig(t, 0)
	assert.Error(t, c.Validate())

	c = plainConfig(t, 1)
	c.Objective = "longest"
	assert.Error(t, c.Validate())

	c = plainConfig(t, 1)
	c.AgentConf = agent.TypedConfig{}
	assert.Error(t, c.Validate())

	c = plainConfig(t, 1)
	c.ReplayConf.BatchSize = 0
	_, _, err := c.CreateExp(0, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunTrials(t *testing.T) {
	c := plainConfig(t, 30)
	summaries, err := RunTrials(context.Background(), 3,
		func(trial int) (Experiment, error) {
			o, _, err := c.CreateExp(uint64(trial), zerolog.Nop())
			return o, err
		})
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	for _, s := range summaries {
		assert.Equal(t, 30, s.Episodes)
	}

	_, err = RunTrials(context.Background(), 2,
		func(trial int) (Experiment, error) {
			return nil, errors.New("no experiment")
		})
	assert.Error(t, err)

	_, err = RunTrials(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestRunTrialsSharedBuffer(t *testing.T) {
	c := perConfig(t, 3)
	c.ReplayConf.Capacity = 10_000

	shared, err := c.SharedBuffer(1)
	require.NoError(t, err)

	dir := t.TempDir()
	lengths := make([]*tracker.EpisodeLength, 3)
	summaries, err := RunTrials(context.Background(), 3,
		func(trial int) (Experiment, error) {
			lengths[trial] = tracker.NewEpisodeLength(filepath.Join(dir,
				fmt.Sprintf("lengths-%d.bin", trial)))
			o, _, err := c.CreateExpWithBuffer(uint64(trial), shared,
				zerolog.Nop(), lengths[trial])
			if err != nil {
				return nil, err
			}
			if o.Buffer() != shared {
				return nil, errors.New("experiment does not use shared buffer")
			}
			return o, nil
		})
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Every step of every trial landed in the one buffer
	var steps float64
	for _, l := range lengths {
		steps += floats.Sum(l.Data())
	}
	assert.Equal(t, int(steps), shared.Len())

	_, _, err = c.CreateExpWithBuffer(0, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = plainConfig(t, 1).SharedBuffer(1)
	assert.Error(t, err)
}
