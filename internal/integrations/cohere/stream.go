package cohere

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// EventType tags each line of a streaming response. The orchestrator decides
// what to forward; this layer only classifies.
type EventType int

const (
	// EventTextDelta carries an incremental slice of generated text.
	EventTextDelta EventType = iota
	// EventStreamStart is the benign start-of-stream marker.
	EventStreamStart
	// EventStreamEnd marks the end of generation.
	EventStreamEnd
	// EventUnparseable is a line that is not valid JSON or matches no known
	// shape. Malformed upstream framing must not terminate the stream, so it
	// is surfaced as a value rather than an error.
	EventUnparseable
)

// Event is one classified line from the upstream stream.
type Event struct {
	Type EventType
	Text string // set for EventTextDelta
}

// Stream reads line-delimited JSON events from a streaming chat response.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// NewStream wraps a raw line-delimited event body. Exposed (rather than tied
// to an HTTP response) so the parser can run over any reader.
func NewStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	// Single deltas are small, but allow for oversized lines.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: scanner}
}

// Recv returns the next event. It skips blank lines, returns io.EOF once the
// upstream body is exhausted, and returns any underlying read error as-is.
func (s *Stream) Recv() (Event, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		return parseEvent([]byte(line)), nil
	}
	if err := s.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

// streamLine covers both the event_type-tagged shape and the legacy shape
// ({"text": ...} / {"is_finished": true}).
type streamLine struct {
	EventType  string `json:"event_type"`
	Text       string `json:"text"`
	IsFinished bool   `json:"is_finished"`
}

func parseEvent(line []byte) Event {
	var parsed streamLine
	if err := json.Unmarshal(line, &parsed); err != nil {
		return Event{Type: EventUnparseable}
	}

	switch parsed.EventType {
	case "text-generation":
		return Event{Type: EventTextDelta, Text: parsed.Text}
	case "stream-start":
		return Event{Type: EventStreamStart}
	case "stream-end":
		return Event{Type: EventStreamEnd}
	}

	// Legacy framing without event_type.
	if parsed.Text != "" {
		return Event{Type: EventTextDelta, Text: parsed.Text}
	}
	if parsed.IsFinished {
		return Event{Type: EventStreamEnd}
	}
	return Event{Type: EventUnparseable}
}
