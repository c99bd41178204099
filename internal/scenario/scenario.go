// Package scenario drives named workloads against a DAG event store and
// reports what it measured.
//
// Every run goes through the same states: init (health probe and pool seeding),
// warm-up, steady run, drain and report. A failing request never aborts a run;
// only setup failures do, and those happen before any worker starts.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/internal/logger"
	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/httpx"
	"github.com/shivanshkc/dagbench/pkg/store"
	"github.com/shivanshkc/dagbench/pkg/streams"
)

// defaultSteadyDuration applies to the duration-only scenarios when no duration is configured.
const defaultSteadyDuration = 10 * time.Second

// ErrEmptyHeads is returned when a scenario needs existing events and the store has none.
var ErrEmptyHeads = errors.New("heads is empty, emit something first")

// Store is the part of the store client the scenarios drive.
type Store interface {
	HealthCheck(ctx context.Context) error
	Heads(ctx context.Context) ([]store.EventID, error)
	Event(ctx context.Context, id store.EventID) (store.Event, error)
	Children(ctx context.Context, id store.EventID) ([]store.EventID, error)
	Descendants(ctx context.Context, id store.EventID) (jsoniter.RawMessage, error)
	Emit(ctx context.Context, request store.EmitRequest) (store.EventID, error)
	Subscribe(ctx context.Context) (*streams.Stream[store.StreamEvent], error)
}

// Runner runs scenarios against a single store.
type Runner struct {
	store  Store
	cfg    config.RunConfig
	probe  config.StoreConfig
	runID  string
	logger zerolog.Logger
}

// NewRunner returns a Runner for the given store and configuration.
func NewRunner(st Store, cfg *config.Config) *Runner {
	return &Runner{
		store:  st,
		cfg:    cfg.Run,
		probe:  cfg.Store,
		runID:  uuid.NewString(),
		logger: logger.Get("scenario"),
	}
}

// RunID identifies this runner's events in the store, through their meta.
func (r *Runner) RunID() string { return r.runID }

// Run executes the scenario and returns its report.
//
// The error is non-nil only when setup failed or the knobs are invalid.
// Canceling ctx ends the steady run early; the report then covers what completed.
func (r *Runner) Run(ctx context.Context, kind Kind) (*Report, error) {
	r.logger.Info().Str("scenario", kind.String()).Msg("starting")

	switch kind {
	case KindEmit:
		return r.runEmit(ctx)
	case KindRead:
		return r.runRead(ctx)
	case KindMixed:
		return r.runMixed(ctx)
	case KindDescendants:
		return r.runDescendants(ctx)
	case KindSSE:
		return r.runSSE(ctx)
	default:
		return nil, fmt.Errorf("unknown scenario %v", kind)
	}
}

// setup probes the store and returns its current heads.
func (r *Runner) setup(ctx context.Context) ([]store.EventID, error) {
	err := httpx.Retry(ctx, r.probe.HealthAttempts, r.probe.HealthDelay, r.store.HealthCheck)
	if err != nil {
		return nil, fmt.Errorf("store is not healthy: %w", err)
	}

	heads, err := r.store.Heads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch heads: %w", err)
	}

	r.logger.Info().Int("heads", len(heads)).Msg("store is ready")
	return heads, nil
}

// plan builds a scheduler plan, count-bounded unless a duration is given.
func (r *Runner) plan(count int, duration time.Duration) bench.Plan {
	plan := bench.Plan{Count: count, Duration: duration, Concurrency: r.cfg.Concurrency}
	if duration <= 0 {
		plan.OnProgress = r.progress(count)
	}
	return plan
}

// steadyDuration is the configured duration, or the default for duration-only scenarios.
func (r *Runner) steadyDuration() time.Duration {
	if r.cfg.Duration > 0 {
		return r.cfg.Duration
	}
	return defaultSteadyDuration
}

// progress logs every tenth of a count-bounded run.
func (r *Runner) progress(total int) func(done int64) {
	step := int64(total / 10)
	if step == 0 {
		return nil
	}
	return func(done int64) {
		if done%step == 0 {
			r.logger.Info().Int64("done", done).Int("total", total).Msg("progress")
		}
	}
}

// meta returns the meta object attached to every emitted event.
func (r *Runner) meta(label string, i int) map[string]any {
	return map[string]any{"bench": label, "i": i, "run": r.runID}
}

const payloadAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// makePayload returns a payload of roughly size bytes of random alphanumerics.
func makePayload(size int) map[string]string {
	if size <= 0 {
		return map[string]string{"msg": "hi"}
	}
	blob := make([]byte, size)
	for i := range blob {
		blob[i] = payloadAlphabet[rand.IntN(len(payloadAlphabet))]
	}
	return map[string]string{"blob": string(blob)}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
