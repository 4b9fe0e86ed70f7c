package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"chatstream-backend/internal/models"
	"chatstream-backend/internal/services"
	"chatstream-backend/pkg/httputil"
)

// ChatService defines the interface expected from the chat orchestration
// service.
type ChatService interface {
	StreamChat(ctx context.Context, req models.ChatRequest, sink services.StreamSink)
}

type ChatHandler struct {
	chatService ChatService
}

func NewChatHandler(chatSvc ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
	}
}

// sseSink delivers stream events to the client as Server-Sent Events. Each
// event is written as one "data: <json>" frame and flushed immediately so
// the client sees tokens as they are generated, not when the response ends.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(event models.StreamEvent) error {
	payload, err := json.Marshal(event.Frame())
	if err != nil {
		return fmt.Errorf("marshaling stream event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing stream event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// HandleChatPost handles the POST /chat request with a JSON body.
func (h *ChatHandler) HandleChatPost(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	h.serveStream(w, r, req)
}

// HandleChatGet handles the GET /chat request with query parameters, for
// clients (e.g. EventSource) that cannot send a body.
func (h *ChatHandler) HandleChatGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.ChatRequest{
		SessionID: q.Get("session_id"),
		Message:   q.Get("message"),
		Username:  q.Get("username"),
	}
	h.serveStream(w, r, req)
}

func (h *ChatHandler) serveStream(w http.ResponseWriter, r *http.Request, req models.ChatRequest) {
	if req.SessionID == "" || req.Message == "" || req.Username == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session_id, message and username are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		// Without flushing there is no streaming, only one buffered blob at
		// the end; refuse rather than degrade silently.
		log.Printf("ERROR [ChatHandler] response writer does not support flushing")
		httputil.RespondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// From here on the status line is sent; all failures surface as an SSE
	// error event, never as a different status code.
	h.chatService.StreamChat(r.Context(), req, &sseSink{w: w, flusher: flusher})
}
