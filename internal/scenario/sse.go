package scenario

import (
	"context"
	"time"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/pool"
	"github.com/shivanshkc/dagbench/pkg/store"
)

const sseEventType = "sse"

// dropNote is printed with every sse report.
const dropNote = "the store drops events for slow subscribers, so low receive counts are expected"

// sseProgressInterval paces the writer's progress logs.
var sseProgressInterval = time.Second

// runSSE holds many subscriptions open while a single writer emits at a fixed rate,
// then reports how many emits each subscriber saw.
func (r *Runner) runSSE(ctx context.Context) (*Report, error) {
	heads, err := r.setup(ctx)
	if err != nil {
		return nil, err
	}
	ids := pool.New(heads, nil)

	observer := bench.NewFanoutObserver[store.StreamEvent](r.cfg.Subs, r.store.Subscribe, classifyStreamEvent)
	r.logger.Info().Int("subs", r.cfg.Subs).Msg("connecting subscribers")
	observer.Start(ctx)

	// Let the subscriptions connect before the first emit.
	_ = sleepContext(ctx, r.cfg.SettleDelay)

	interval := time.Duration(float64(time.Second) / max(1, r.cfg.EmitRate))
	deadline := time.Now().Add(r.steadyDuration())

	r.logger.Info().Dur("interval", interval).Msg("emitting")

	var writes bench.Stats
	emitted := 0
	start := time.Now()
	nextProgress := start.Add(sseProgressInterval)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		iterationStart := time.Now()

		err := bench.Measure(&writes, func() error {
			id, err := r.store.Emit(ctx, store.EmitRequest{
				Type:    sseEventType,
				Parents: ids.Select(pool.ModeChain, 1),
				Payload: map[string]string{"msg": "tick"},
				Meta:    map[string]any{"bench": "sse", "run": r.runID},
			})
			if err == nil {
				ids.Append(id)
			}
			return err
		})
		if err == nil {
			emitted++
		} else {
			r.logger.Debug().Err(err).Msg("emit failed")
		}

		if now := time.Now(); !now.Before(nextProgress) {
			r.logger.Info().Int("emitted", emitted).Int64("delivered", observer.Delivered()).Msg("progress")
			nextProgress = now.Add(sseProgressInterval)
		}

		if sleepContext(ctx, interval-time.Since(iterationStart)) != nil {
			break
		}
	}
	elapsed := time.Since(start)

	result := observer.Stop()

	report := &Report{Kind: KindSSE, Label: "sse"}
	report.addFields(Field{"emitted", emitted}, Field{"subs", r.cfg.Subs}, Field{"failed_subs", result.Failed})
	report.addFanout(result.Summarize())
	report.addSummary("writer", writes.Summarize(elapsed))
	report.addNote(dropNote)
	return report, nil
}

// classifyStreamEvent counts emit records. A record carrying an error ends the subscription.
func classifyStreamEvent(event store.StreamEvent) (bool, error) {
	if event.Err != nil {
		return false, event.Err
	}
	return event.IsEmit(), nil
}
