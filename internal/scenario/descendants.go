package scenario

import (
	"context"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/pool"
)

// buildEventType is the type of the events emitted to build the measured subtree.
const buildEventType = "node"

// runDescendants builds a subtree, then measures descendants queries on an early node of it.
func (r *Runner) runDescendants(ctx context.Context) (*Report, error) {
	mode, err := pool.ParseMode(r.cfg.ParentsMode)
	if err != nil {
		return nil, err
	}

	heads, err := r.setup(ctx)
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return nil, ErrEmptyHeads
	}
	ids := pool.New(heads, nil)

	// Warm-up: build the subtree. Failed emits only leave it smaller.
	buildPlan := bench.Plan{
		Count:       r.cfg.BuildN,
		Concurrency: min(max(r.cfg.Concurrency, 1), max(r.cfg.BuildConcurrency, 1)),
		OnProgress:  r.progress(r.cfg.BuildN),
	}
	var build bench.Stats
	r.logger.Info().Int("build_n", r.cfg.BuildN).Msg("building subtree")
	bench.Run(ctx, buildPlan, &build, func(ctx context.Context, i int) error {
		return r.emitInto(ctx, ids, mode, buildEventType, "descendants-build", i)
	})
	built := build.Summarize(0)

	// An early node is more likely to have many descendants.
	root := ids.At(ids.Len() / 3)

	var stats bench.Stats
	plan := bench.Plan{Duration: r.steadyDuration(), Concurrency: r.cfg.Concurrency}
	elapsed := bench.Run(ctx, plan, &stats, func(ctx context.Context, _ int) error {
		_, err := r.store.Descendants(ctx, root)
		return err
	})

	report := &Report{Kind: KindDescendants, Label: "descendants"}
	report.addFields(
		Field{"root", root},
		Field{"build_n", r.cfg.BuildN},
		Field{"build_ok", built.OK},
		Field{"pool_size", ids.Len()},
	)
	report.addSummary("", stats.Summarize(elapsed))
	return report, nil
}
