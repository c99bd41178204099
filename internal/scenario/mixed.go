package scenario

import (
	"context"
	"math/rand/v2"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/pool"
)

// runMixed interleaves writes and reads for a fixed duration.
func (r *Runner) runMixed(ctx context.Context) (*Report, error) {
	mode, err := pool.ParseMode(r.cfg.ParentsMode)
	if err != nil {
		return nil, err
	}

	readOps := make([]ReadOp, 0, len(r.cfg.ReadOps))
	for _, name := range r.cfg.ReadOps {
		op, err := ParseReadOp(name)
		if err != nil {
			return nil, err
		}
		readOps = append(readOps, op)
	}
	if len(readOps) == 0 {
		readOps = []ReadOp{ReadEvent, ReadChildren, ReadHeads}
	}

	heads, err := r.setup(ctx)
	if err != nil {
		return nil, err
	}
	ids := pool.New(heads, nil)

	var writes, reads bench.Stats
	plan := bench.Plan{Duration: r.steadyDuration(), Concurrency: r.cfg.Concurrency}

	// Each unit records into its own side, so the scheduler keeps no stats.
	elapsed := bench.Run(ctx, plan, nil, func(ctx context.Context, i int) error {
		if rand.Float64() < r.cfg.WriteRatio {
			return bench.Measure(&writes, func() error {
				return r.emitInto(ctx, ids, mode, r.cfg.EventType, "mixed", i)
			})
		}
		return bench.Measure(&reads, func() error {
			id, ok := ids.Random()
			if !ok {
				return r.read(ctx, ReadHeads, 0)
			}
			return r.read(ctx, readOps[rand.IntN(len(readOps))], id)
		})
	})

	report := &Report{Kind: KindMixed, Label: "mixed"}
	report.addSummary("write", writes.Summarize(elapsed))
	report.addSummary("read", reads.Summarize(elapsed))
	report.addFields(Field{"pool_size", ids.Len()})
	return report, nil
}
