package experiment

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Builder builds the experiment of one trial
type Builder func(trial int) (Experiment, error)

// RunTrials runs n independent trials concurrently, at most one per
// available CPU, and returns the Summary of each in trial order. The
// first failing trial cancels the rest.
func RunTrials(ctx context.Context, n int, build Builder) ([]Summary,
	error) {
	if n <= 0 {
		return nil, fmt.Errorf("runTrials: need at least one trial")
	}

	summaries := make([]Summary, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < n; i++ {
		g.Go(func() error {
			exp, err := build(i)
			if err != nil {
				return fmt.Errorf("runTrials: trial %d: %w", i, err)
			}

			s, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("runTrials: trial %d: %w", i, err)
			}
			summaries[i] = s

			if err := exp.Save(); err != nil {
				return fmt.Errorf("runTrials: trial %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
