// Package streams provides generic, pull-based stream iterators.
//
// A Stream wraps a source (usually a channel fed by a producer goroutine) and
// lets the consumer pull items one at a time. Transformations such as Map and
// Filter run synchronously inside the consumer's goroutine, so a pipeline of
// several stages costs no extra goroutines or channels.
//
// Every pull can be bounded by a context through NextContext. This is what
// makes long-lived sources, like a server-sent event subscription, safe to
// abandon: the consumer stops waiting as soon as its context is done.
package streams

import (
	"context"
)

// Stream represents a lazy, pull-based iterator over a sequence of items of type T.
//
// The zero value of a Stream is not useful and will panic if pulled from.
type Stream[T any] struct {
	// next produces the next item, or ok=false when the source is exhausted.
	// It returns an error only when ctx is done before an item is available.
	next func(ctx context.Context) (T, bool, error)
}

// New creates a new Stream from a read-only channel.
//
// The returned Stream produces items until the source channel is closed and drained.
func New[T any](sourceChan <-chan T) *Stream[T] {
	return &Stream[T]{
		next: func(ctx context.Context) (T, bool, error) {
			select {
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			case val, ok := <-sourceChan:
				return val, ok, nil
			}
		},
	}
}

// Map returns a new Stream that applies conv to each item of the source Stream.
//
// This is a lazy operation. conv is not called until an item is pulled.
func Map[T, U any](source *Stream[T], conv func(T) U) *Stream[U] {
	return &Stream[U]{
		next: func(ctx context.Context) (U, bool, error) {
			val, ok, err := source.next(ctx)
			if err != nil || !ok {
				var zero U
				return zero, false, err
			}
			return conv(val), true, nil
		},
	}
}

// Filter returns a new Stream that only yields the items of source for which keep returns true.
func Filter[T any](source *Stream[T], keep func(T) bool) *Stream[T] {
	return &Stream[T]{
		next: func(ctx context.Context) (T, bool, error) {
			for {
				val, ok, err := source.next(ctx)
				if err != nil || !ok {
					return val, ok, err
				}
				if keep(val) {
					return val, true, nil
				}
			}
		},
	}
}

// NextContext produces the next item from the stream, blocking until one is
// available or ctx is done.
//
// The ok flag is false once the stream is exhausted. Consumers MUST check it.
func (s *Stream[T]) NextContext(ctx context.Context) (T, bool, error) {
	return s.next(ctx)
}
