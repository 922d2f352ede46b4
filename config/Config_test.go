package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/agent"
	"github.com/samuelfneumann/mazeper/experiment"
	"github.com/samuelfneumann/mazeper/expreplay"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, variant := range []string{"plain", "per", "key"} {
		c, err := Default(variant)
		require.NoError(t, err, variant)
		assert.NoError(t, c.Validate(), variant)
	}

	plain, err := Default("Plain")
	require.NoError(t, err)
	assert.Equal(t, string(expreplay.OnlineKind), plain.Replay)
	assert.Equal(t, 2000, plain.Episodes)

	key, err := Default("key")
	require.NoError(t, err)
	assert.True(t, key.Decaying)
	assert.Equal(t, string(experiment.HighestReturn), key.Objective)
	assert.Equal(t, uint(400), key.MaxSteps)

	exp, err := key.Experiment()
	require.NoError(t, err)
	assert.Equal(t, agent.CountBasedQLearningTabular, exp.AgentConf.Type)
	assert.Equal(t, 2, exp.ReplayConf.VisitKeyDims)

	_, err = Default("maze")
	assert.Error(t, err)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"variant: key\nepisodes: 10\nalpha: 0.7\nlog_level: debug\n"), 0o644))

	t.Setenv(EnvPrefix+"_EPISODES", "20")

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "key", c.Variant)
	assert.Equal(t, 20, c.Episodes)
	assert.Equal(t, 0.7, c.Alpha)
	assert.Equal(t, expreplay.DefaultBeta, c.Beta)
	assert.Equal(t, uint(400), c.MaxSteps)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestLoadDefaultsToPER(t *testing.T) {
	c, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "per", c.Variant)
	assert.False(t, c.Decaying)
	assert.Equal(t, 10, c.Size)
}

func TestLoadInvalid(t *testing.T) {
	for key, val := range map[string]any{
		"variant":    "maze",
		"trials":     0,
		"log_level":  "loud",
		"batch_size": 0,
		"episodes":   -1,
		"alpha":      -1,
	} {
		v := viper.New()
		v.Set(key, val)
		_, err := Load(v)
		assert.Error(t, err, key)
	}

	// Only prioritized buffers can be shared between trials
	v := viper.New()
	v.Set("variant", "plain")
	v.Set("shared_replay", true)
	_, err := Load(v)
	assert.Error(t, err)

	v.Set("variant", "per")
	c, err := Load(v)
	require.NoError(t, err)
	assert.True(t, c.SharedReplay)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "max_steps")
	assert.Contains(t, keys, "visit_penalty")
	assert.Len(t, keys, 31)
}
