package bench

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/shivanshkc/dagbench/pkg/utils/miscutils"
)

// Outcome is the result of one unit of work. Latency is measured whether or not it succeeded.
type Outcome struct {
	OK      bool
	Latency time.Duration
}

// Success returns a successful Outcome.
func Success(latency time.Duration) Outcome { return Outcome{OK: true, Latency: latency} }

// Failure returns a failed Outcome.
func Failure(latency time.Duration) Outcome { return Outcome{OK: false, Latency: latency} }

// Measure times fn, records its outcome into stats and returns fn's error.
func Measure(stats *Stats, fn func() error) error {
	start := time.Now()
	err := fn()
	stats.Record(Outcome{OK: err == nil, Latency: time.Since(start)})
	return err
}

// Stats accumulates outcomes from concurrent workers.
//
// The zero value is ready to use.
type Stats struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// Record appends an outcome. Safe for concurrent use.
func (s *Stats) Record(outcome Outcome) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, outcome)
	s.mu.Unlock()
}

// Snapshot returns a copy of the outcomes recorded so far.
func (s *Stats) Snapshot() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outcomes)
}

// Summary holds the derived statistics of a run.
//
// Latency fields are in milliseconds and are NaN when nothing was recorded.
// Avg covers failed outcomes too.
type Summary struct {
	Total, OK, Fail int
	Elapsed         time.Duration

	RPS, OKRPS float64

	Avg, P50, P90, P95, P99, Max float64
}

// Summarize computes the Summary over a snapshot of the recorded outcomes.
func (s *Stats) Summarize(elapsed time.Duration) Summary {
	outcomes := s.Snapshot()

	summary := Summary{Total: len(outcomes), Elapsed: elapsed}
	latencies := make(Latencies, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.OK {
			summary.OK++
		} else {
			summary.Fail++
		}
		latencies[i] = float64(outcome.Latency) / float64(time.Millisecond)
	}

	if secs := elapsed.Seconds(); secs > 0 {
		summary.RPS = float64(summary.Total) / secs
		summary.OKRPS = float64(summary.OK) / secs
	}

	summary.Avg = latencies.Mean()

	ps := latencies.Percentiles(50, 90, 95, 99, 100)
	summary.P50, summary.P90, summary.P95, summary.P99, summary.Max = ps[0], ps[1], ps[2], ps[3], ps[4]
	return summary
}

// String renders the summary on a single line.
func (s Summary) String() string {
	return fmt.Sprintf("total=%s ok=%s fail=%s rps=%.1f ok_rps=%.1f "+
		"lat_ms(avg=%s p50=%s p90=%s p95=%s p99=%s max=%s)",
		miscutils.FormatCount(float64(s.Total)), miscutils.FormatCount(float64(s.OK)),
		miscutils.FormatCount(float64(s.Fail)), s.RPS, s.OKRPS,
		ms(s.Avg), ms(s.P50), ms(s.P90), ms(s.P95), ms(s.P99), ms(s.Max))
}

func ms(v float64) string { return miscutils.FormatFloat(v, 2) }

// Latencies is a sample of values, typically milliseconds.
//
// Every statistic returns NaN on an empty sample.
type Latencies []float64

// Mean returns the arithmetic mean.
func (l Latencies) Mean() float64 {
	if len(l) == 0 {
		return math.NaN()
	}

	var total float64
	for _, v := range l {
		total += v
	}
	return total / float64(len(l))
}

// Percentile returns the p-th percentile, p in [0, 100].
func (l Latencies) Percentile(p float64) float64 {
	return l.Percentiles(p)[0]
}

// Percentiles returns one value per requested percentile, sorting the sample only once.
//
// The rank of p is (n-1)*p/100; values between ranks are linearly interpolated.
// p outside [0, 100] is clamped.
func (l Latencies) Percentiles(ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(l) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	sorted := slices.Clone(l)
	slices.Sort(sorted)

	for i, p := range ps {
		p = math.Min(100, math.Max(0, p))
		rank := float64(len(sorted)-1) * p / 100
		lo, hi := math.Floor(rank), math.Ceil(rank)

		if lo == hi {
			out[i] = sorted[int(rank)]
			continue
		}
		loVal, hiVal := sorted[int(lo)], sorted[int(hi)]
		out[i] = loVal + (hiVal-loVal)*(rank-lo)
	}
	return out
}
