// Package store is a typed client for the DAG event store's HTTP API.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/shivanshkc/dagbench/pkg/httpx"
	"github.com/shivanshkc/dagbench/pkg/streams"
)

// maxConnsPerHost sizes the connection pool for high-concurrency runs.
const maxConnsPerHost = 2000

// Client represents a DAG event store REST API client.
//
// Every operation issues exactly one request. Nothing is retried.
type Client struct {
	baseURL string
	// httpClient carries the fixed per-request timeout.
	httpClient *http.Client
	// streamClient has no timeout since subscriptions are long-lived.
	streamClient *http.Client
}

// NewClient returns a new Client instance. timeout bounds every request except subscriptions.
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxConnsPerHost
	transport.MaxIdleConnsPerHost = maxConnsPerHost

	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Transport: transport, Timeout: timeout},
		streamClient: &http.Client{Transport: transport},
	}
}

// HealthCheck calls GET /healthz. The body must be JSON, whatever its shape.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out any
	return c.get(ctx, "healthz", &out, "healthz")
}

// Heads calls GET /heads and returns the current heads.
func (c *Client) Heads(ctx context.Context) ([]EventID, error) {
	var out headsResponse
	if err := c.get(ctx, "heads", &out, "heads"); err != nil {
		return nil, err
	}
	return out.Heads, nil
}

// Event calls GET /event/{id}.
func (c *Client) Event(ctx context.Context, id EventID) (Event, error) {
	var out Event
	err := c.get(ctx, "event", &out, "event", formatID(id))
	return out, err
}

// Children calls GET /children/{id}.
func (c *Client) Children(ctx context.Context, id EventID) ([]EventID, error) {
	var out childrenResponse
	if err := c.get(ctx, "children", &out, "children", formatID(id)); err != nil {
		return nil, err
	}
	return out.Children, nil
}

// Descendants calls GET /descendants/{id}. The subtree is returned undecoded.
func (c *Client) Descendants(ctx context.Context, id EventID) (jsoniter.RawMessage, error) {
	var out jsoniter.RawMessage
	err := c.get(ctx, "descendants", &out, "descendants", formatID(id))
	return out, err
}

// Emit calls POST /emit and returns the ID of the committed event.
//
// Only a successful return proves the event exists in the store.
func (c *Client) Emit(ctx context.Context, request EmitRequest) (EventID, error) {
	const op = "emit"

	// The store expects an array, never null.
	if request.Parents == nil {
		request.Parents = []EventID{}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal emit request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "emit")
	if err != nil {
		return 0, fmt.Errorf("failed to form API endpoint URL: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	var out emitResponse
	if err := c.do(op, httpRequest, &out); err != nil {
		return 0, err
	}

	id := out.eventID()
	if id <= 0 {
		return 0, protocolError(op, http.StatusOK, "response carries no event id", nil)
	}
	return id, nil
}

// Subscribe calls GET /subscribe and returns the stream of records.
//
// The stream is infinite. It ends, and the connection is released, when ctx is canceled.
func (c *Client) Subscribe(ctx context.Context) (*streams.Stream[StreamEvent], error) {
	const op = "subscribe"

	endpoint, err := url.JoinPath(c.baseURL, "subscribe")
	if err != nil {
		return nil, fmt.Errorf("failed to form API endpoint URL: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpRequest.Header.Set("Accept", "text/event-stream")
	httpRequest.Header.Set("Cache-Control", "no-cache")

	response, err := c.streamClient.Do(httpRequest)
	if err != nil {
		return nil, transportError(op, err)
	}

	if err := httpx.CheckStatus(response); err != nil {
		_ = response.Body.Close()
		return nil, statusError(op, err)
	}

	records := httpx.ReadServerSentEvents(ctx, response.Body)
	return streams.Map(records, func(sse httpx.ServerSentEvent) StreamEvent {
		return StreamEvent{Index: sse.Index, Type: sse.Event, Data: sse.Data, Err: sse.Error, Received: sse.Timestamp}
	}), nil
}

// get issues a GET on the joined path and decodes the body into out.
func (c *Client) get(ctx context.Context, op string, out any, path ...string) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to form API endpoint URL: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpRequest.Header.Set("Accept", "application/json")

	return c.do(op, httpRequest, out)
}

// do executes the request and converts every failure into a *StoreError.
func (c *Client) do(op string, httpRequest *http.Request, out any) error {
	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return transportError(op, err)
	}
	defer func() { _ = response.Body.Close() }()

	if err := httpx.CheckStatus(response); err != nil {
		return statusError(op, err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return transportError(op, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return protocolError(op, response.StatusCode, "malformed response body: "+err.Error(), err)
	}
	return nil
}

// statusError wraps an *httpx.StatusError as a protocol error.
func statusError(op string, err error) *StoreError {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return protocolError(op, se.StatusCode, se.Body, err)
	}
	return protocolError(op, 0, err.Error(), err)
}

func formatID(id EventID) string {
	return strconv.FormatInt(int64(id), 10)
}
