package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Work is one benchmark-able unit of work. i is the invocation's sequence number.
//
// A returned error, or a panic, marks the invocation as failed.
type Work func(ctx context.Context, i int) error

// Plan describes how many times, and how concurrently, a Work runs.
type Plan struct {
	// Count is the exact number of invocations for a count-bounded run.
	Count int
	// Duration switches to a duration-bounded run when positive. Count is ignored then.
	Duration time.Duration
	// Concurrency caps the invocations in flight. Values below 1 mean 1.
	Concurrency int
	// OnProgress, if set, is called after every completed invocation with the completed total.
	OnProgress func(done int64)
}

// Run executes work according to plan, recording every outcome into stats,
// and returns the wall time the run took. stats may be nil when work records
// its own outcomes.
//
// No more than plan.Concurrency invocations are ever in flight. Once the
// count or the deadline is reached, Run stops launching and waits for every
// in-flight invocation to finish. Canceling ctx also stops launching; the
// in-flight invocations see the canceled context.
func Run(ctx context.Context, plan Plan, stats *Stats, work Work) time.Duration {
	concurrency := max(plan.Concurrency, 1)

	// Admission gate.
	gate := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	var completed atomic.Int64

	launch := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer gate.Release(1)

			outcome := invoke(ctx, i, work)
			if stats != nil {
				stats.Record(outcome)
			}

			done := completed.Add(1)
			if plan.OnProgress != nil {
				plan.OnProgress(done)
			}
		}()
	}

	start := time.Now()

	if plan.Duration > 0 {
		deadline := start.Add(plan.Duration)
		// Waiting for a slot must not outlive the deadline either.
		acquireCtx, cancel := context.WithDeadline(ctx, deadline)
		for i := 0; time.Now().Before(deadline); i++ {
			if err := gate.Acquire(acquireCtx, 1); err != nil {
				break
			}
			if !time.Now().Before(deadline) {
				gate.Release(1)
				break
			}
			launch(i)
		}
		cancel()
	} else {
		for i := 0; i < plan.Count; i++ {
			if err := gate.Acquire(ctx, 1); err != nil {
				break
			}
			launch(i)
		}
	}

	wg.Wait()
	return time.Since(start)
}

// invoke runs a single unit of work and converts its result into an Outcome.
func invoke(ctx context.Context, i int, work Work) (outcome Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(time.Since(start))
			log.Debug().Int("i", i).Err(fmt.Errorf("panic: %v", r)).Msg("unit of work panicked")
		}
	}()

	err := work(ctx, i)
	latency := time.Since(start)

	if err != nil {
		log.Debug().Int("i", i).Err(err).Dur("latency", latency).Msg("unit of work failed")
		return Failure(latency)
	}
	return Success(latency)
}
