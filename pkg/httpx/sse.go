package httpx

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shivanshkc/dagbench/pkg/streams"
)

// ServerSentEvent represents a single record sent by the server.
type ServerSentEvent struct {
	Index     int
	Event     string
	Data      string
	Error     error
	Timestamp time.Time
}

// ReadServerSentEvents reads the given response body assuming it is a stream of Server-Sent events
// and returns a stream for the caller to consume the records.
//
// It takes ownership of the response body and guarantees it will be closed,
// either when the body is exhausted or when ctx is canceled.
func ReadServerSentEvents(ctx context.Context, body io.ReadCloser) *streams.Stream[ServerSentEvent] {
	eventChan := make(chan ServerSentEvent, 100)

	// producerCtx is a local context for managing the producer's lifecycle.
	// When the producer goroutine finishes (for any reason), it calls cancel(),
	// which signals the context watcher goroutine to exit.
	producerCtx, cancel := context.WithCancel(ctx)

	// This goroutine listens for the parent context's cancellation
	// and closes the body to unblock the reader.
	go func() {
		<-producerCtx.Done()
		_ = body.Close()
	}()

	go func() {
		defer close(eventChan)
		defer cancel()

		records := NewRecordReader(body)

		for index := 0; ; index++ {
			record, err := records.Next()
			timestamp := time.Now() // Capture timestamp immediately after read.

			if err != nil {
				if errors.Is(err, io.EOF) && ctx.Err() == nil {
					return
				}
				// A canceled read surfaces as a closed body; report the real cause.
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				// The consumer may be gone already, so never block on the final event.
				select {
				case eventChan <- ServerSentEvent{Index: index, Error: err, Timestamp: timestamp}:
				default:
				}
				return
			}

			event := ServerSentEvent{Index: index, Event: record.Event, Data: record.Data, Timestamp: timestamp}
			select {
			case eventChan <- event:
			case <-producerCtx.Done():
				return
			}
		}
	}()

	return streams.New(eventChan)
}
