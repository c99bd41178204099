package scenario

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/pool"
	"github.com/shivanshkc/dagbench/pkg/store"
)

const (
	// maxWarmRounds caps the warm-up depth.
	maxWarmRounds = 5
	// warmFrontier is how many of the newest pool IDs each warm-up round expands.
	warmFrontier = 20
)

// runRead measures a single read operation against IDs discovered from the heads.
func (r *Runner) runRead(ctx context.Context) (*Report, error) {
	op, err := ParseReadOp(r.cfg.ReadOp)
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
	r.warmUp(ctx, ids)
	r.logger.Info().Int("pool", ids.Len()).Msg("warm-up done")

	var stats bench.Stats
	elapsed := bench.Run(ctx, r.plan(r.cfg.Count, r.cfg.Duration), &stats, func(ctx context.Context, _ int) error {
		id, _ := ids.Random()
		return r.read(ctx, op, id)
	})

	report := &Report{Kind: KindRead, Label: "read:" + string(op)}
	report.addSummary("", stats.Summarize(elapsed))
	return report, nil
}

// warmUp grows the pool by fetching the children of its newest members, a few rounds deep.
// Failures are ignored.
func (r *Runner) warmUp(ctx context.Context, ids *pool.Pool) {
	rounds := min(maxWarmRounds, r.cfg.WarmDepth)

	for round := 0; round < rounds; round++ {
		snapshot := ids.Snapshot()
		frontier := snapshot[len(snapshot)-min(len(snapshot), warmFrontier):]

		// Results are kept per position so the pool grows in a stable order.
		found := make([][]store.EventID, len(frontier))

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(max(r.cfg.Concurrency, 1))
		for i, id := range frontier {
			group.Go(func() error {
				children, err := r.store.Children(groupCtx, id)
				if err != nil {
					r.logger.Debug().Err(err).Int64("id", int64(id)).Msg("warm-up read failed")
					return nil
				}
				found[i] = children
				return nil
			})
		}
		_ = group.Wait()

		if ctx.Err() != nil {
			return
		}
		for _, children := range found {
			ids.Append(children...)
		}
	}
}

// read performs one read operation. id is ignored by heads.
func (r *Runner) read(ctx context.Context, op ReadOp, id store.EventID) error {
	var err error
	switch op {
	case ReadEvent:
		_, err = r.store.Event(ctx, id)
	case ReadChildren:
		_, err = r.store.Children(ctx, id)
	case ReadHeads:
		_, err = r.store.Heads(ctx)
	case ReadDescendants:
		_, err = r.store.Descendants(ctx, id)
	default:
		err = fmt.Errorf("unknown read op %q", op)
	}
	return err
}
