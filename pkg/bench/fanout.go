package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/shivanshkc/dagbench/pkg/streams"
	"github.com/shivanshkc/dagbench/pkg/utils/miscutils"
)

// SubscribeFunc opens one long-lived subscription. The subscription must end when ctx is canceled.
type SubscribeFunc[T any] func(ctx context.Context) (*streams.Stream[T], error)

// ClassifyFunc inspects one delivered item. It reports whether the item should
// be counted, or an error if the item signals a broken subscription.
type ClassifyFunc[T any] func(item T) (count bool, err error)

// FanoutObserver holds many concurrent subscriptions open and counts the items
// each one receives until it is stopped.
//
// The observed server may drop items for subscribers that cannot keep up, so
// unequal counts are expected and are not failures.
type FanoutObserver[T any] struct {
	subscribe SubscribeFunc[T]
	classify  ClassifyFunc[T]

	counts []atomic.Int64
	failed atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFanoutObserver returns an observer for subs subscribers.
func NewFanoutObserver[T any](subs int, subscribe SubscribeFunc[T], classify ClassifyFunc[T]) *FanoutObserver[T] {
	return &FanoutObserver[T]{
		subscribe: subscribe,
		classify:  classify,
		counts:    make([]atomic.Int64, max(subs, 0)),
	}
}

// Start opens every subscription concurrently and returns without waiting for them to connect.
func (o *FanoutObserver[T]) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := range o.counts {
		o.wg.Add(1)
		go o.watch(ctx, i)
	}
}

// Delivered returns the number of counted items across all subscribers so far.
func (o *FanoutObserver[T]) Delivered() int64 {
	var total int64
	for i := range o.counts {
		total += o.counts[i].Load()
	}
	return total
}

// Stop cancels every subscription, waits for them to release their resources
// and returns what each one counted.
func (o *FanoutObserver[T]) Stop() FanoutResult {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	result := FanoutResult{Counts: make([]int, len(o.counts)), Failed: int(o.failed.Load())}
	for i := range o.counts {
		result.Counts[i] = int(o.counts[i].Load())
	}
	return result
}

// watch consumes a single subscription until ctx is canceled or the subscription breaks.
func (o *FanoutObserver[T]) watch(ctx context.Context, idx int) {
	defer o.wg.Done()

	stream, err := o.subscribe(ctx)
	if err != nil {
		o.fail(ctx, idx, fmt.Errorf("failed to subscribe: %w", err))
		return
	}

	for {
		item, ok, err := stream.NextContext(ctx)
		if err != nil {
			o.fail(ctx, idx, err)
			return
		}
		if !ok {
			o.fail(ctx, idx, errors.New("subscription closed by server"))
			return
		}

		count, err := o.classify(item)
		if err != nil {
			o.fail(ctx, idx, err)
			return
		}
		if count {
			o.counts[idx].Add(1)
		}
	}
}

// fail records a broken subscription. Cancellation is the normal way for a
// subscription to end, so it is not recorded.
func (o *FanoutObserver[T]) fail(ctx context.Context, idx int, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	o.failed.Add(1)
	log.Debug().Int("subscriber", idx).Err(err).Msg("subscription ended early")
}

// FanoutResult is the per-subscriber count of delivered items.
type FanoutResult struct {
	Counts []int
	// Failed is the number of subscriptions that broke before being stopped. Diagnostic only.
	Failed int
}

// FanoutSummary describes the distribution of a FanoutResult.
//
// P50 and P90 are NaN when there were no subscribers.
type FanoutSummary struct {
	Subs, Total, Min, Max int
	Avg, P50, P90         float64
}

// Summarize computes the distribution of the per-subscriber counts.
func (r FanoutResult) Summarize() FanoutSummary {
	summary := FanoutSummary{Subs: len(r.Counts)}
	if len(r.Counts) == 0 {
		summary.P50, summary.P90 = math.NaN(), math.NaN()
		return summary
	}

	values := make(Latencies, len(r.Counts))
	for i, c := range r.Counts {
		summary.Total += c
		values[i] = float64(c)
	}

	summary.Avg = float64(summary.Total) / float64(len(r.Counts))
	summary.Min, summary.Max = slices.Min(r.Counts), slices.Max(r.Counts)

	ps := values.Percentiles(50, 90)
	summary.P50, summary.P90 = ps[0], ps[1]
	return summary
}

// String renders the summary on a single line.
func (s FanoutSummary) String() string {
	return fmt.Sprintf("recv_total=%d recv_avg=%.2f recv_min=%d recv_max=%d p50=%s p90=%s",
		s.Total, s.Avg, s.Min, s.Max, miscutils.FormatFloat(s.P50, 0), miscutils.FormatFloat(s.P90, 0))
}
