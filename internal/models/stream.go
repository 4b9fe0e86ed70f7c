package models

// StreamEventType discriminates the transient events the orchestrator emits
// toward a client stream. Stream events are never persisted.
type StreamEventType int

const (
	// StreamEventTextDelta carries one incremental slice of assistant text.
	StreamEventTextDelta StreamEventType = iota
	// StreamEventFinished is the successful terminal event. Exactly one
	// terminal event (Finished or Error) ends every stream, always last.
	StreamEventFinished
	// StreamEventError is the failing terminal event.
	StreamEventError
)

// StreamEvent is the tagged variant flowing from the orchestrator to a sink.
type StreamEvent struct {
	Type       StreamEventType
	Text       string     // TextDelta payload
	SourceType SourceType // Finished only
	Sources    []string   // Finished only
	Err        string     // Error only; generic, client-safe message
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == StreamEventFinished || e.Type == StreamEventError
}

// Wire frame shapes. Clients treat "is_finished": true as terminal regardless
// of which shape carries it.
type textDeltaFrame struct {
	Response string `json:"response"`
}

type finishedFrame struct {
	IsFinished bool       `json:"is_finished"`
	SourceType SourceType `json:"source_type"`
	Sources    []string   `json:"sources"`
}

type errorFrame struct {
	Error      string `json:"error"`
	IsFinished bool   `json:"is_finished"`
}

// Frame converts the event into the JSON-marshalable wire object for the
// outbound SSE protocol.
func (e StreamEvent) Frame() interface{} {
	switch e.Type {
	case StreamEventFinished:
		sources := e.Sources
		if sources == nil {
			sources = []string{}
		}
		return finishedFrame{IsFinished: true, SourceType: e.SourceType, Sources: sources}
	case StreamEventError:
		return errorFrame{Error: e.Err, IsFinished: true}
	default:
		return textDeltaFrame{Response: e.Text}
	}
}

// ChatTurnResult accumulates the outcome of one orchestrated request: the
// concatenation of every forwarded text delta plus the grounding metadata the
// finishing event carries.
type ChatTurnResult struct {
	FullText   string
	SourceType SourceType
	Sources    []string
}
