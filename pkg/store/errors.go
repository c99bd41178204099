package store

import (
	"fmt"
)

// ErrorKind separates failures that never reached a response from failures in the response itself.
type ErrorKind int

const (
	// KindTransport covers connection failures, timeouts and broken reads.
	KindTransport ErrorKind = iota + 1
	// KindProtocol covers non-2xx statuses and malformed bodies.
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// StoreError is returned by every Client operation that does not succeed.
type StoreError struct {
	Kind ErrorKind
	// Op is the operation name, e.g. "emit".
	Op string
	// Status is the HTTP status, or 0 when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("store %s: %s error: status %d: %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("store %s: %s error: %s", e.Op, e.Kind, e.Message)
}

func (e *StoreError) Unwrap() error { return e.Err }

func transportError(op string, err error) *StoreError {
	return &StoreError{Kind: KindTransport, Op: op, Message: err.Error(), Err: err}
}

func protocolError(op string, status int, message string, err error) *StoreError {
	return &StoreError{Kind: KindProtocol, Op: op, Status: status, Message: message, Err: err}
}
