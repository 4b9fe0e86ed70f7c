package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"chatstream-backend/internal/integrations/cohere"
	"chatstream-backend/internal/integrations/serpapi"
	"chatstream-backend/internal/models"
	"chatstream-backend/internal/store"
)

// clientErrorMessage is the only failure text a client ever sees; internal
// detail stays in the logs.
const clientErrorMessage = "An error occurred while processing your request"

// LLMClient is the upstream text-generation collaborator.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, history []models.Message) (string, error)
	Stream(ctx context.Context, prompt string, history []models.Message) (*cohere.Stream, error)
}

// WebSearcher is the web evidence collaborator.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*serpapi.EvidenceBundle, error)
}

// ChatService orchestrates one chat turn: it persists the user message,
// picks a response strategy, drives the upstream token stream through the
// sink, and finalizes persistence. All collaborators are injected at
// construction; the service holds no per-request state.
type ChatService struct {
	store      store.Store
	llm        LLMClient
	search     WebSearcher
	cutoffYear int
}

func NewChatService(s store.Store, llm LLMClient, search WebSearcher, cutoffYear int) *ChatService {
	return &ChatService{
		store:      s,
		llm:        llm,
		search:     search,
		cutoffYear: cutoffYear,
	}
}

// StreamChat handles one request end to end. It guarantees that exactly one
// terminal event (Finished or Error) is sent to the sink, always last,
// unless the sink itself has failed, in which case nothing more can reach
// the client anyway.
//
// On any failure before or during streaming, partial assistant text is
// discarded and nothing is persisted for the assistant turn; the user
// message, persisted up front, survives.
func (s *ChatService) StreamChat(ctx context.Context, req models.ChatRequest, sink StreamSink) {
	turn, err := s.respond(ctx, req, sink)
	if err != nil {
		log.Printf("ERROR [ChatService] session %s: %v", req.SessionID, err)
		s.sendError(req.SessionID, sink)
		return
	}

	// FINALIZING: persist the assistant message only when the upstream
	// produced text; an empty turn still gets its finishing event.
	if turn.FullText != "" {
		_, err = s.store.AppendMessage(ctx, store.AppendMessageParams{
			SessionID:  req.SessionID,
			Username:   req.Username,
			Role:       models.RoleAssistant,
			Text:       turn.FullText,
			SourceType: turn.SourceType,
			Sources:    turn.Sources,
		})
		if err != nil {
			log.Printf("ERROR [ChatService] session %s: saving assistant message: %v", req.SessionID, err)
			s.sendError(req.SessionID, sink)
			return
		}
	}

	finish := models.StreamEvent{
		Type:       models.StreamEventFinished,
		SourceType: turn.SourceType,
		Sources:    turn.Sources,
	}
	if err := sink.Send(finish); err != nil {
		log.Printf("WARN [ChatService] session %s: client gone before finish event: %v", req.SessionID, err)
	}
}

func (s *ChatService) sendError(sessionID string, sink StreamSink) {
	event := models.StreamEvent{Type: models.StreamEventError, Err: clientErrorMessage}
	if err := sink.Send(event); err != nil {
		log.Printf("WARN [ChatService] session %s: client gone before error event: %v", sessionID, err)
	}
}

// respond runs START through STREAMING and returns the accumulated turn.
// Text deltas are forwarded to the sink as they arrive; the terminal event is
// the caller's responsibility so it is emitted exactly once.
func (s *ChatService) respond(ctx context.Context, req models.ChatRequest, sink StreamSink) (*models.ChatTurnResult, error) {
	message := strings.TrimSpace(req.Message)

	// History is loaded before the new user message is appended, so prompts
	// embed only prior turns.
	history, err := s.store.ListMessages(ctx, req.SessionID, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", ErrPersistence, err)
	}

	// START: the question must be durably recorded before any streaming, so
	// a crash mid-stream never loses it. Failure here is fatal to the
	// request; answering an unrecorded question is worse than failing.
	_, err = s.store.AppendMessage(ctx, store.AppendMessageParams{
		SessionID: req.SessionID,
		Username:  req.Username,
		Role:      models.RoleUser,
		Text:      message,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: saving user message: %v", ErrPersistence, err)
	}

	turn := &models.ChatTurnResult{
		SourceType: models.SourceTypeLLM,
		Sources:    []string{},
	}

	var prompt string
	intent := ClassifyIntent(message, s.cutoffYear)
	switch intent {
	case IntentGreeting:
		prompt = greetingPrompt(message)

	case IntentWebSearch:
		query, err := s.rewriteQuery(ctx, message, history)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRewriteFailed, err)
		}
		log.Printf("[ChatService] session %s: rewritten web query: %q", req.SessionID, query)

		bundle, err := s.search.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEvidenceFetchFailed, err)
		}
		prompt = webSearchPrompt(bundle.Summary, history, message)
		turn.SourceType = models.SourceTypeWeb
		if bundle.Sources != nil {
			turn.Sources = bundle.Sources
		}

	default:
		prompt = plainPrompt(message)
	}
	log.Printf("[ChatService] session %s: strategy=%s", req.SessionID, intent)

	if err := s.streamCompletion(ctx, prompt, history, turn, sink); err != nil {
		return nil, err
	}
	return turn, nil
}

// streamCompletion drives the upstream token stream: every text delta is
// appended to the accumulator and flushed to the sink before the next
// upstream read, so the client sees chunks strictly in emission order.
// Start-of-stream markers are dropped, unparseable lines are skipped, and a
// missing end marker is tolerated: exhaustion of the upstream body ends
// STREAMING just like an explicit stream-end.
func (s *ChatService) streamCompletion(ctx context.Context, prompt string, history []models.Message, turn *models.ChatTurnResult, sink StreamSink) error {
	stream, err := s.llm.Stream(ctx, prompt, history)
	if err != nil {
		return fmt.Errorf("%w: opening stream: %v", ErrUpstreamStream, err)
	}
	defer stream.Close()

	var accumulator strings.Builder
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading stream: %v", ErrUpstreamStream, err)
		}

		switch event.Type {
		case cohere.EventTextDelta:
			if event.Text == "" {
				continue
			}
			accumulator.WriteString(event.Text)
			delta := models.StreamEvent{Type: models.StreamEventTextDelta, Text: event.Text}
			if err := sink.Send(delta); err != nil {
				// Client disconnected mid-stream: abort the upstream call and
				// discard the partial answer.
				return fmt.Errorf("client stream closed: %w", err)
			}
		case cohere.EventStreamEnd:
			turn.FullText = accumulator.String()
			return nil
		case cohere.EventStreamStart, cohere.EventUnparseable:
			continue
		}
	}

	turn.FullText = accumulator.String()
	return nil
}

// rewriteQuery turns a context-dependent message into a standalone search
// query via one non-streaming model call. There is no fallback to the raw
// message: if the rewrite fails, the request fails.
func (s *ChatService) rewriteQuery(ctx context.Context, message string, history []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cohere.DefaultCompleteTimeout)
	defer cancel()

	// History reaches the model through the instruction text, not the
	// provider's chat_history field.
	text, err := s.llm.Complete(ctx, rewritePrompt(history, message), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
