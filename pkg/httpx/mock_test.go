package httpx_test

import (
	"io"
	"strings"
	"sync"
)

// mockReadCloser is a mock implementation of io.ReadCloser that serves fixed
// data and records whether Close has been called.
type mockReadCloser struct {
	reader io.Reader
	mu     sync.Mutex
	closed bool
}

// newMockReadCloser creates a new mock body from a string.
func newMockReadCloser(data string) *mockReadCloser {
	return &mockReadCloser{reader: strings.NewReader(data)}
}

func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	return m.reader.Read(p)
}

func (m *mockReadCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// isClosed safely checks if the Close method has been called.
func (m *mockReadCloser) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// blockingReadCloser simulates an idle network connection, like a
// subscription with no traffic. Read blocks until Close is called from
// another goroutine, then fails.
type blockingReadCloser struct {
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
}

func newBlockingReadCloser() *blockingReadCloser {
	return &blockingReadCloser{closeChan: make(chan struct{})}
}

func (m *blockingReadCloser) Read([]byte) (n int, err error) {
	<-m.closeChan
	return 0, io.ErrClosedPipe
}

func (m *blockingReadCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.closeChan)
	return nil
}

func (m *blockingReadCloser) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// errorReader is a helper that implements io.Reader and always returns an error.
type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (n int, err error) {
	return 0, e.err
}
