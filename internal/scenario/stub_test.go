package scenario

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/pkg/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stubStore is a minimal in-memory event store served over HTTP.
type stubStore struct {
	mu      sync.Mutex
	parents map[int64][]int64
	order   []int64
	nextID  int64

	// emitStatus, when set, is returned by every emit.
	emitStatus   int
	healthStatus int

	emits []store.EmitRequest
	hits  map[string]int

	subs []chan string
	done chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{
		parents: map[int64][]int64{},
		nextID:  1,
		hits:    map[string]int{},
		done:    make(chan struct{}),
	}
}

// seed adds an event without going through the API.
func (s *stubStore) seed(parents ...int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(parents)
}

func (s *stubStore) add(parents []int64) int64 {
	id := s.nextID
	s.nextID++
	s.parents[id] = append([]int64{}, parents...)
	s.order = append(s.order, id)
	return id
}

func (s *stubStore) hit(op string) {
	s.mu.Lock()
	s.hits[op]++
	s.mu.Unlock()
}

func (s *stubStore) hitCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[op]
}

func (s *stubStore) emitted() []store.EmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.EmitRequest{}, s.emits...)
}

func (s *stubStore) heads() []int64 {
	hasChild := map[int64]bool{}
	for _, parents := range s.parents {
		for _, p := range parents {
			hasChild[p] = true
		}
	}
	heads := []int64{}
	for _, id := range s.order {
		if !hasChild[id] {
			heads = append(heads, id)
		}
	}
	return heads
}

func (s *stubStore) children(id int64) []int64 {
	children := []int64{}
	for _, child := range s.order {
		for _, p := range s.parents[child] {
			if p == id {
				children = append(children, child)
			}
		}
	}
	return children
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *stubStore) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	_, exists := s.parents[id]
	s.mu.Unlock()
	if err != nil || !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return 0, false
	}
	return id, true
}

func (s *stubStore) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.hit("healthz")
		s.mu.Lock()
		status := s.healthStatus
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("GET /heads", func(w http.ResponseWriter, r *http.Request) {
		s.hit("heads")
		s.mu.Lock()
		heads := s.heads()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"heads": heads})
	})

	mux.HandleFunc("GET /event/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.hit("event")
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		parents := s.parents[id]
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "type": "bench", "parents": parents})
	})

	mux.HandleFunc("GET /children/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.hit("children")
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		children := s.children(id)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"children": children})
	})

	mux.HandleFunc("GET /descendants/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.hit("descendants")
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		children := s.children(id)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "children": children})
	})

	mux.HandleFunc("POST /emit", func(w http.ResponseWriter, r *http.Request) {
		s.hit("emit")
		var request store.EmitRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		s.mu.Lock()
		s.emits = append(s.emits, request)
		if s.emitStatus != 0 {
			status := s.emitStatus
			s.mu.Unlock()
			writeJSON(w, status, map[string]string{"error": "emit failed"})
			return
		}
		parents := make([]int64, len(request.Parents))
		for i, p := range request.Parents {
			parents[i] = int64(p)
		}
		id := s.add(parents)
		record := fmt.Sprintf(`{"id":%d,"type":%q}`, id, request.Type)
		for _, sub := range s.subs {
			// Slow subscribers miss events.
			select {
			case sub <- record:
			default:
			}
		}
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"event": map[string]any{"id": id, "type": request.Type}})
	})

	mux.HandleFunc("GET /subscribe", func(w http.ResponseWriter, r *http.Request) {
		s.hit("subscribe")
		flusher := w.(http.Flusher)

		sub := make(chan string, 64)
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "event: hello\ndata: {\"message\":\"subscribed\"}\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-s.done:
				return
			case record := <-sub:
				_, _ = fmt.Fprintf(w, "event: emit\ndata: %s\n\n", record)
				flusher.Flush()
			}
		}
	})

	return mux
}

// start serves the stub for the duration of the test and returns a store client for it.
func (s *stubStore) start(t *testing.T) *store.Client {
	t.Helper()
	server := httptest.NewServer(s.handler())
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(s.done) })
	return store.NewClient(server.URL, 2*time.Second)
}

// testConfig returns a small, fast configuration.
func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{HealthAttempts: 1},
		Run: config.RunConfig{
			Concurrency:      4,
			Count:            10,
			EventType:        "bench",
			PayloadBytes:     16,
			ParentsMode:      "chain",
			ParentsK:         1,
			ReadOp:           "event",
			WarmDepth:        2,
			ReadOps:          []string{"event", "children", "heads"},
			WriteRatio:       0.2,
			BuildN:           20,
			BuildConcurrency: 4,
			Subs:             3,
			EmitRate:         100,
			SettleDelay:      100 * time.Millisecond,
		},
	}
}
