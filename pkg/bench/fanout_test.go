package bench_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/streams"
)

// feed returns a stream that yields items and then blocks, like an idle
// subscription, until the consumer's context is canceled.
func feed(items ...string) *streams.Stream[string] {
	ch := make(chan string, len(items))
	for _, item := range items {
		ch <- item
	}
	return streams.New(ch)
}

func countEmits(item string) (bool, error) {
	if item == "broken" {
		return false, errors.New("stream error")
	}
	return item == "emit", nil
}

// TestFanoutObserver_PartialCounts covers three subscribers: one that never
// receives anything and two that receive five emits each, all stopped
// mid-stream.
func TestFanoutObserver_PartialCounts(t *testing.T) {
	var calls atomic.Int64
	subscribe := func(ctx context.Context) (*streams.Stream[string], error) {
		if calls.Add(1) == 1 {
			return feed(), nil
		}
		return feed("hello", "emit", "emit", "ping", "emit", "emit", "emit"), nil
	}

	observer := bench.NewFanoutObserver(3, subscribe, countEmits)
	observer.Start(context.Background())

	require.Eventually(t, func() bool { return observer.Delivered() == 10 }, 2*time.Second, 5*time.Millisecond)

	result := observer.Stop()
	assert.ElementsMatch(t, []int{0, 5, 5}, result.Counts)
	assert.Zero(t, result.Failed, "cancellation must not count as a failure")

	summary := result.Summarize()
	assert.Equal(t, 3, summary.Subs)
	assert.Equal(t, 10, summary.Total)
	assert.InDelta(t, 3.33, summary.Avg, 0.01)
	assert.Equal(t, 0, summary.Min)
	assert.Equal(t, 5, summary.Max)
	assert.InDelta(t, 5, summary.P50, 1e-9)
	assert.Contains(t, summary.String(), "recv_total=10 recv_avg=3.33 recv_min=0 recv_max=5")
}

func TestFanoutObserver_Failures(t *testing.T) {
	var calls atomic.Int64
	subscribe := func(ctx context.Context) (*streams.Stream[string], error) {
		switch calls.Add(1) {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return feed("emit", "broken"), nil
		default:
			// Closed by the server after two emits.
			ch := make(chan string, 2)
			ch <- "emit"
			ch <- "emit"
			close(ch)
			return streams.New(ch), nil
		}
	}

	observer := bench.NewFanoutObserver(3, subscribe, countEmits)
	observer.Start(context.Background())

	// All three end on their own; Stop just collects.
	require.Eventually(t, func() bool { return observer.Delivered() == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	result := observer.Stop()
	assert.ElementsMatch(t, []int{0, 1, 2}, result.Counts)
	assert.Equal(t, 3, result.Failed)
}

func TestFanoutObserver_StopWithoutStart(t *testing.T) {
	observer := bench.NewFanoutObserver(2, func(context.Context) (*streams.Stream[string], error) {
		return feed(), nil
	}, countEmits)

	result := observer.Stop()
	assert.Equal(t, []int{0, 0}, result.Counts)
}

func TestFanoutResult_SummarizeEmpty(t *testing.T) {
	summary := bench.FanoutResult{}.Summarize()
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Avg)
	assert.True(t, math.IsNaN(summary.P50))
	assert.Contains(t, summary.String(), "p50=nan")
}
