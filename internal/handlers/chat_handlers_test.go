package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatstream-backend/internal/models"
	"chatstream-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChatService struct {
	events  []models.StreamEvent
	lastReq models.ChatRequest
}

func (s *scriptedChatService) StreamChat(ctx context.Context, req models.ChatRequest, sink services.StreamSink) {
	s.lastReq = req
	for _, ev := range s.events {
		if err := sink.Send(ev); err != nil {
			return
		}
	}
}

func sseFrames(body string) []string {
	var frames []string
	for _, chunk := range strings.Split(body, "\n\n") {
		if strings.HasPrefix(chunk, "data: ") {
			frames = append(frames, strings.TrimPrefix(chunk, "data: "))
		}
	}
	return frames
}

func TestHandleChatPostStreamsEvents(t *testing.T) {
	svc := &scriptedChatService{events: []models.StreamEvent{
		{Type: models.StreamEventTextDelta, Text: "Hel"},
		{Type: models.StreamEventTextDelta, Text: "lo"},
		{Type: models.StreamEventFinished, SourceType: models.SourceTypeLLM},
	}}
	h := NewChatHandler(svc)

	body := `{"session_id":"sess-1","message":"hi","username":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleChatPost(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	assert.Equal(t, "sess-1", svc.lastReq.SessionID)
	assert.Equal(t, "hi", svc.lastReq.Message)
	assert.Equal(t, "alice", svc.lastReq.Username)

	frames := sseFrames(rec.Body.String())
	require.Len(t, frames, 3)
	assert.JSONEq(t, `{"response":"Hel"}`, frames[0])
	assert.JSONEq(t, `{"response":"lo"}`, frames[1])
	assert.JSONEq(t, `{"is_finished":true,"source_type":"llm","sources":[]}`, frames[2])
}

func TestHandleChatGetReadsQueryParams(t *testing.T) {
	svc := &scriptedChatService{events: []models.StreamEvent{
		{Type: models.StreamEventFinished, SourceType: models.SourceTypeWeb, Sources: []string{"https://example.com"}},
	}}
	h := NewChatHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/chat?session_id=sess-2&message=what+is+new&username=bob", nil)
	rec := httptest.NewRecorder()

	h.HandleChatGet(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-2", svc.lastReq.SessionID)
	assert.Equal(t, "what is new", svc.lastReq.Message)
	assert.Equal(t, "bob", svc.lastReq.Username)

	frames := sseFrames(rec.Body.String())
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"is_finished":true,"source_type":"web","sources":["https://example.com"]}`, frames[0])
}

func TestHandleChatErrorEventShape(t *testing.T) {
	svc := &scriptedChatService{events: []models.StreamEvent{
		{Type: models.StreamEventError, Err: "An error occurred while processing your request"},
	}}
	h := NewChatHandler(svc)

	body := `{"session_id":"sess-1","message":"hi","username":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleChatPost(rec, req)

	// Status is already 200 by the time the pipeline fails; the error travels
	// in-band as the terminal frame.
	assert.Equal(t, http.StatusOK, rec.Code)
	frames := sseFrames(rec.Body.String())
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"error":"An error occurred while processing your request","is_finished":true}`, frames[0])
}

func TestHandleChatPostMissingFields(t *testing.T) {
	h := NewChatHandler(&scriptedChatService{})

	body := `{"session_id":"sess-1","message":"","username":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleChatPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
}

func TestHandleChatPostInvalidJSON(t *testing.T) {
	h := NewChatHandler(&scriptedChatService{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.HandleChatPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
