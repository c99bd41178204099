package store

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json is a drop-in replacement for encoding/json with a faster codec.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventID is the store-assigned identifier of an event. Valid IDs are positive.
type EventID int64

// EventTypeEmit is the stream record type that announces a committed event.
const EventTypeEmit = "emit"

// Event is an immutable node of the store's DAG.
type Event struct {
	ID           EventID   `json:"id"`
	TimeUnixNano int64     `json:"time_unix_nano,omitempty"`
	Type         string    `json:"type"`
	Parents      []EventID `json:"parents"`
	Message      string    `json:"message,omitempty"`

	Payload jsoniter.RawMessage `json:"payload,omitempty"`
	Meta    jsoniter.RawMessage `json:"meta,omitempty"`
}

// EmitRequest is the body of POST /emit.
type EmitRequest struct {
	Type    string    `json:"type"`
	Parents []EventID `json:"parents"`
	Payload any       `json:"payload"`
	Meta    any       `json:"meta"`
}

// emitResponse accepts both the nested {"event":{"id":N}} shape and a flat {"id":N}.
type emitResponse struct {
	Event *struct {
		ID EventID `json:"id"`
	} `json:"event"`
	ID EventID `json:"id"`
}

func (r emitResponse) eventID() EventID {
	if r.Event != nil {
		return r.Event.ID
	}
	return r.ID
}

type headsResponse struct {
	Heads []EventID `json:"heads"`
}

type childrenResponse struct {
	Children []EventID `json:"children"`
}

// StreamEvent is one record received from GET /subscribe.
type StreamEvent struct {
	Index int
	Type  string
	Data  string
	// Err is set on the final record of a stream that broke.
	Err      error
	Received time.Time
}

// IsEmit reports whether the record announces a committed event.
func (e StreamEvent) IsEmit() bool {
	return e.Err == nil && e.Type == EventTypeEmit
}

// Decode parses the record's data as an Event.
func (e StreamEvent) Decode() (Event, error) {
	var event Event
	err := json.Unmarshal([]byte(e.Data), &event)
	return event, err
}
