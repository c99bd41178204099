// Package pool keeps the run-scoped set of event IDs known to exist in the
// store, and picks parents from it to grow the graph in a chosen shape.
//
// The pool is append-only. Readers work on a snapshot, so a selection made
// while another worker appends may not see that append. The store, not the
// pool, is authoritative.
package pool

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/shivanshkc/dagbench/pkg/store"
)

// EventID is the store-assigned identifier of an event.
type EventID = store.EventID

// Mode is the graph-shape policy used to select parents.
type Mode int

const (
	// ModeChain selects the most recent ID only, giving a linear history.
	ModeChain Mode = iota
	// ModeFork samples from a narrow window near the frontier, producing branches.
	ModeFork
	// ModeMerge samples from a wider window, so separate branches get joined.
	ModeMerge
	// ModeRandom samples from the whole pool.
	ModeRandom
)

var modeNames = [...]string{"chain", "fork", "merge", "random"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown parents mode %q, want one of %s", name, strings.Join(modeNames[:], "|"))
}

// Pool is a growing, ordered collection of event IDs shared by concurrent workers.
type Pool struct {
	mu  sync.RWMutex
	ids []EventID

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New returns a pool seeded with the given IDs. A nil rng gets a randomly seeded one.
func New(seed []EventID, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	ids := make([]EventID, len(seed))
	copy(ids, seed)
	return &Pool{ids: ids, rng: rng}
}

// Append adds id to the end of the pool. Safe for concurrent use; no append is lost.
func (p *Pool) Append(ids ...EventID) {
	p.mu.Lock()
	p.ids = append(p.ids, ids...)
	p.mu.Unlock()
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ids)
}

// Last returns the most recently appended ID, or false if the pool is empty.
func (p *Pool) Last() (EventID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.ids) == 0 {
		return 0, false
	}
	return p.ids[len(p.ids)-1], true
}

// At returns the ID at position i.
func (p *Pool) At(i int) EventID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ids[i]
}

// Snapshot returns a view of the pool at this instant.
//
// The returned slice shares storage with the pool; entries never change once
// appended, so it must only be read.
func (p *Pool) Snapshot() []EventID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ids[:len(p.ids):len(p.ids)]
}

// Random returns a uniformly chosen member, or false if the pool is empty.
func (p *Pool) Random() (EventID, bool) {
	ids := p.Snapshot()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[p.intN(len(ids))], true
}

// Select picks up to k parents according to mode.
//
// An empty pool or k <= 0 yields an empty, non-nil set. Otherwise chain yields
// the last ID alone, for any k.
func (p *Pool) Select(mode Mode, k int) []EventID {
	ids := p.Snapshot()
	if len(ids) == 0 || k <= 0 {
		return []EventID{}
	}

	switch mode {
	case ModeChain:
		return []EventID{ids[len(ids)-1]}
	case ModeFork:
		return p.sample(tail(ids, max(5, 10*k)), k)
	case ModeMerge:
		return p.sample(tail(ids, max(20, 20*k)), k)
	default:
		return p.sample(ids, k)
	}
}

// tail returns the last n entries of ids, or all of them if there are fewer.
func tail(ids []EventID, n int) []EventID {
	if n >= len(ids) {
		return ids
	}
	return ids[len(ids)-n:]
}

// sample picks min(k, len(ids)) distinct members of ids.
//
// Small k against a large window uses Floyd's algorithm, which costs O(k) no
// matter how big the pool grows. A k close to the window size shuffles positions.
func (p *Pool) sample(ids []EventID, k int) []EventID {
	n := len(ids)
	k = min(k, n)

	p.rngMu.Lock()
	defer p.rngMu.Unlock()

	if 4*k <= n {
		return p.sampleSparse(ids, k)
	}

	// Partial Fisher-Yates over a permutation of positions, so ids stays untouched.
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	out := make([]EventID, k)
	for i := 0; i < k; i++ {
		j := i + p.rng.IntN(n-i)
		positions[i], positions[j] = positions[j], positions[i]
		out[i] = ids[positions[i]]
	}
	return out
}

// sampleSparse is Floyd's algorithm. The caller holds rngMu.
func (p *Pool) sampleSparse(ids []EventID, k int) []EventID {
	n := len(ids)
	seen := make(map[int]struct{}, k)
	out := make([]EventID, 0, k)
	for j := n - k; j < n; j++ {
		t := p.rng.IntN(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, ids[t])
	}
	return out
}

func (p *Pool) intN(n int) int {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.IntN(n)
}
