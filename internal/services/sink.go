package services

import (
	"strings"

	"chatstream-backend/internal/models"
)

// StreamSink receives the orchestrator's stream events. The SSE handler
// provides an incremental sink that flushes each event to the client; the
// single-shot BufferSink collects everything for callers that want the reply
// in one piece. Both see the exact same event sequence, so there is one
// orchestrator code path regardless of delivery mode.
//
// A Send error means the consumer is gone (e.g. the client disconnected);
// the orchestrator treats it as fatal to the request.
type StreamSink interface {
	Send(event models.StreamEvent) error
}

// BufferSink accumulates events in memory.
type BufferSink struct {
	Events []models.StreamEvent
}

func (b *BufferSink) Send(event models.StreamEvent) error {
	b.Events = append(b.Events, event)
	return nil
}

// FullText returns the concatenation of all text deltas in emission order.
func (b *BufferSink) FullText() string {
	var sb strings.Builder
	for _, ev := range b.Events {
		if ev.Type == models.StreamEventTextDelta {
			sb.WriteString(ev.Text)
		}
	}
	return sb.String()
}

// Terminal returns the terminal event and true once the stream has ended.
func (b *BufferSink) Terminal() (models.StreamEvent, bool) {
	if len(b.Events) == 0 {
		return models.StreamEvent{}, false
	}
	last := b.Events[len(b.Events)-1]
	return last, last.Terminal()
}
