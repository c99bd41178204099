package scenario

import (
	"context"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/pool"
	"github.com/shivanshkc/dagbench/pkg/store"
)

// runEmit measures write throughput, growing the graph in the configured shape.
func (r *Runner) runEmit(ctx context.Context) (*Report, error) {
	mode, err := pool.ParseMode(r.cfg.ParentsMode)
	if err != nil {
		return nil, err
	}

	heads, err := r.setup(ctx)
	if err != nil {
		return nil, err
	}
	parents := pool.New(heads, nil)

	var stats bench.Stats
	elapsed := bench.Run(ctx, r.plan(r.cfg.Count, r.cfg.Duration), &stats, func(ctx context.Context, i int) error {
		return r.emitInto(ctx, parents, mode, r.cfg.EventType, "emit", i)
	})

	report := &Report{Kind: KindEmit, Label: "emit"}
	report.addSummary("", stats.Summarize(elapsed))

	var lastID any = "n/a"
	if id, ok := parents.Last(); ok {
		lastID = id
	}
	report.addFields(Field{"pool_size", parents.Len()}, Field{"last_id", lastID})
	return report, nil
}

// emitInto emits one event with parents picked from p, and appends the new ID to p on success.
func (r *Runner) emitInto(ctx context.Context, p *pool.Pool, mode pool.Mode, eventType, label string, i int) error {
	id, err := r.store.Emit(ctx, store.EmitRequest{
		Type:    eventType,
		Parents: p.Select(mode, r.cfg.ParentsK),
		Payload: makePayload(r.cfg.PayloadBytes),
		Meta:    r.meta(label, i),
	})
	if err != nil {
		return err
	}
	p.Append(id)
	return nil
}
