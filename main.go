package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/mazeper/config"
	"github.com/samuelfneumann/mazeper/environment/envconfig"
	"github.com/samuelfneumann/mazeper/environment/maze"
	"github.com/samuelfneumann/mazeper/experiment"
	"github.com/samuelfneumann/mazeper/experiment/tracker"
	"github.com/samuelfneumann/mazeper/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v          = viper.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "mazeper",
	Short: "Tabular Q-learning in grid mazes with prioritized replay",
	Long: `mazeper trains tabular Q-learning agents in grid mazes.

Three variants are available. The plain variant learns online in a
preset maze with traps. The per variant learns from a prioritized
replay buffer in a generated maze. The key variant must also collect a
key before the exit opens, and penalizes the rewards of transitions out
of often visited states.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config file: %w", err)
		}
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train agents and save their learning curves",
	RunE:  runTrain,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Build a maze layout, print it and render it",
	RunE:  runPreview,
}

func init() {
	d, err := config.Default(string(envconfig.PER))
	if err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("log-level", d.LogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("variant", d.Variant,
		"Maze variant (plain, per, key)")
	rootCmd.PersistentFlags().String("layout", "",
		"Preset layout (simple, complex, spiral); empty generates a maze")
	rootCmd.PersistentFlags().Int("size", d.Size, "Size of generated mazes")
	rootCmd.PersistentFlags().Uint64("seed", d.Seed, "Random seed")
	rootCmd.PersistentFlags().String("out-dir", d.OutDir, "Output directory")

	// Defaults of the flags below depend on the variant and are filled in
	// by config.Load unless set
	f := trainCmd.Flags()
	f.Int("episodes", d.Episodes, "Episodes per trial")
	f.Uint("max-steps", d.MaxSteps, "Maximum steps per episode")
	f.Float64("discount", d.Discount, "Discount factor")
	f.Int("trials", d.Trials, "Independent trials run in parallel")
	f.String("objective", d.Objective,
		"Best path objective (shortest, return)")
	f.String("replay", d.Replay, "Replay buffer (Prioritized, Online)")
	f.Int("capacity", d.Capacity, "Replay buffer capacity")
	f.Float64("alpha", d.Alpha, "Priority exponent")
	f.Float64("beta", d.Beta, "Importance-sampling exponent")
	f.Int("batch-size", d.BatchSize, "Transitions sampled per update")
	f.Int("min-samples", d.MinSamples,
		"Transitions stored before updates begin")
	f.String("sampling", d.Sampling,
		"Priority sampling (Stratified, Proportional)")
	f.Bool("decaying", d.Decaying, "Penalize rewards of visited states")
	f.Float64("visit-penalty", d.VisitPenalty, "Penalty per decayed visit")
	f.Float64("visit-decay", d.VisitDecay, "Decay of visit counts per step")
	f.Int("max-visited-states", d.MaxVisitedStates,
		"Visit counts kept, 0 for all")
	f.Bool("shared-replay", d.SharedReplay,
		"Trials pool their transitions in one replay buffer")
	f.Float64("epsilon", d.Epsilon, "Initial exploration rate")
	f.Float64("min-epsilon", d.MinEpsilon, "Minimum exploration rate")
	f.Float64("epsilon-decay", d.EpsilonDecay,
		"Exploration decay per update")
	f.Float64("learning-rate", d.LearningRate, "Q-learning step size")
	f.String("exploration", d.Exploration,
		"Exploration (egreedy, countbased)")
	f.Int("log-every", d.LogEvery, "Episodes between progress logs")
	f.Bool("render", d.Render, "Render the best path and learning curves")
	f.Bool("progress", d.Progress, "Show a progress bar for single trials")

	rootCmd.AddCommand(trainCmd, previewCmd)
}

// bind binds the flags of cmd to their configuration keys, which use
// underscores where flags use hyphens
func bind(cmd *cobra.Command) error {
	for _, key := range config.Keys() {
		name := strings.ReplaceAll(key, "_", "-")
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return err
			}
		}
	}
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	return nil
}

// newLogger returns a console logger when stderr is a terminal and a
// JSON logger otherwise
func newLogger(level zerolog.Level) zerolog.Logger {
	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr,
			TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// trial is an experiment which also renders its results when saved
type trial struct {
	*experiment.Online
	dir     string
	render  bool
	returns *tracker.Return
	success *tracker.Success
}

// Save saves the tracked data of the trial and renders the best path
// and the learning curves
func (t *trial) Save() error {
	if err := t.Online.Save(); err != nil {
		return err
	}
	if !t.render {
		return nil
	}

	s := t.Summary()
	var path []maze.Point
	title := "no successful episode"
	if s.Found {
		path = s.Best.Path
		title = fmt.Sprintf("best path: %d steps, return %.1f", s.Best.Steps,
			s.Best.Return)
	}
	err := render.SaveMaze(filepath.Join(t.dir, "maze.png"), s.Layout, path,
		render.Options{Title: title})
	if err != nil {
		return err
	}

	return render.SaveCurves(filepath.Join(t.dir, "curves.png"),
		render.Rewards(t.returns.Data()),
		render.SuccessRate(t.success.Data()),
		render.StepsToSuccess(t.success.Steps()))
}

func runTrain(cmd *cobra.Command, args []string) error {
	if err := bind(cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := newLogger(level)

	expConf, err := cfg.Experiment()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(cfg.OutDir, runID)
	logger = logger.With().Str("run", runID).Logger()
	logger.Info().
		Str("variant", cfg.Variant).
		Int("episodes", cfg.Episodes).
		Int("trials", cfg.Trials).
		Bool("shared_replay", cfg.SharedReplay).
		Str("dir", runDir).
		Msg("starting training")

	create := expConf.CreateExp
	if cfg.SharedReplay {
		shared, err := expConf.SharedBuffer(cfg.Seed)
		if err != nil {
			return err
		}
		create = func(seed uint64, l zerolog.Logger,
			t ...tracker.Tracker) (*experiment.Online, maze.Stats, error) {
			return expConf.CreateExpWithBuffer(seed, shared, l, t...)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	build := func(i int) (experiment.Experiment, error) {
		dir := runDir
		if cfg.Trials > 1 {
			dir = filepath.Join(runDir, fmt.Sprintf("trial-%d", i))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}

		t := &trial{
			dir:     dir,
			render:  cfg.Render,
			returns: tracker.NewReturn(filepath.Join(dir, "returns.bin")),
			success: tracker.NewSuccess(filepath.Join(dir, "success.bin")),
		}
		trialLogger := logger.With().Int("trial", i).Logger()

		o, stats, err := create(cfg.Seed+uint64(i), trialLogger,
			t.returns, t.success,
			tracker.NewEpisodeLength(filepath.Join(dir, "lengths.bin")))
		if err != nil {
			return nil, err
		}
		t.Online = o

		o.Register(tracker.NewParquet(filepath.Join(dir, "episodes.parquet"),
			runID, func() (float64, int) {
				return o.Epsilon(), o.Buffer().Len()
			}))
		if cfg.Progress && cfg.Trials == 1 {
			o.ShowProgress(os.Stderr)
		}

		level := zerolog.InfoLevel
		if stats.Fallback {
			level = zerolog.WarnLevel
		}
		trialLogger.WithLevel(level).
			Int("obstacles", stats.Placed).
			Int("target", stats.Target).
			Bool("fallback", stats.Fallback).
			Bool("solvable", stats.Solvable).
			Msg("maze built")

		return t, nil
	}

	summaries, err := experiment.RunTrials(ctx, cfg.Trials, build)
	if err != nil {
		return err
	}

	for i, s := range summaries {
		ev := logger.Info().
			Int("trial", i).
			Int("successes", s.Successes).
			Float64("success_rate", s.SuccessRate).
			Float64("epsilon", s.Epsilon)
		if s.Found {
			ev = ev.Int("best_steps", s.Best.Steps).
				Float64("best_return", s.Best.Return)
		}
		ev.Msg("trial finished")
	}
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	if err := bind(cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := newLogger(level)

	layout, stats, err := cfg.Environment().NewLayout(cfg.Seed)
	if err != nil {
		return err
	}
	fmt.Println(layout)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	filename := filepath.Join(cfg.OutDir, "preview.png")
	if err := render.SaveMaze(filename, layout, nil, render.Options{}); err != nil {
		return err
	}

	logger.Info().
		Int("size", layout.Width).
		Int("obstacles", stats.Placed).
		Int("attempts", stats.Attempts).
		Bool("fallback", stats.Fallback).
		Bool("solvable", stats.Solvable).
		Str("file", filename).
		Msg("layout rendered")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
