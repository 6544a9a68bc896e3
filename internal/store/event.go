package store

import (
	"encoding/json"
	"strings"
)

// Event is a single stored log event. Events are immutable once stored;
// the store hands out copies and never mutates payloads.
type Event struct {
	// ID is assigned by the store at append time and is unique and
	// time-ordered within the process.
	ID string
	// Timestamp is the producer-supplied event time in Unix milliseconds.
	Timestamp int64
	// Payload is one of ConsoleRecord or StructuredRecord.
	Payload Payload
}

// Payload is the two-case variant carried by an event: console capture
// produces leveled records, every other topic carries raw structured data.
type Payload interface {
	// Text returns the textual rendering used for substring filtering.
	Text() string

	isPayload()
}

// ConsoleRecord is the reserved payload shape for console-style capture.
type ConsoleRecord struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

func (c ConsoleRecord) Text() string { return c.Message }
func (ConsoleRecord) isPayload()     {}

// StructuredRecord wraps an arbitrary JSON value for non-console topics.
type StructuredRecord struct {
	Data json.RawMessage `json:"data"`
}

func (s StructuredRecord) Text() string { return string(s.Data) }
func (StructuredRecord) isPayload()     {}

// MatchText reports whether the event's textual rendering contains the
// given substring, case-insensitively. An empty filter matches everything.
func (e Event) MatchText(filter string) bool {
	if filter == "" {
		return true
	}
	if e.Payload == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Payload.Text()), strings.ToLower(filter))
}

// eventJSON is the wire shape shared by the HTTP API and the stream. The
// payload variant is flattened: console fields at the top level, structured
// values under "data".
type eventJSON struct {
	ID        string          `json:"id,omitempty"`
	Timestamp int64           `json:"ts"`
	Level     string          `json:"level,omitempty"`
	Message   string          `json:"message,omitempty"`
	Source    string          `json:"source,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON flattens the payload variant.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{ID: e.ID, Timestamp: e.Timestamp}
	switch p := e.Payload.(type) {
	case ConsoleRecord:
		out.Level = p.Level
		out.Message = p.Message
		out.Source = p.Source
	case StructuredRecord:
		out.Data = p.Data
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the payload variant: the presence of "data" marks
// a structured event, anything else decodes as a console record.
func (e *Event) UnmarshalJSON(b []byte) error {
	var in eventJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	e.ID = in.ID
	e.Timestamp = in.Timestamp
	if len(in.Data) > 0 {
		e.Payload = StructuredRecord{Data: in.Data}
		return nil
	}
	e.Payload = ConsoleRecord{Level: in.Level, Message: in.Message, Source: in.Source}
	return nil
}
