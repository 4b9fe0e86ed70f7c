package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"chatstream-backend/internal/integrations/cohere"
	"chatstream-backend/internal/integrations/serpapi"
	"chatstream-backend/internal/models"
	"chatstream-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeStore struct {
	messages           []models.Message
	users              map[string]*models.User
	appendUserErr      error
	appendAssistantErr error
	listErr            error
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	if arg.Role == models.RoleUser && f.appendUserErr != nil {
		return nil, f.appendUserErr
	}
	if arg.Role == models.RoleAssistant && f.appendAssistantErr != nil {
		return nil, f.appendAssistantErr
	}
	msg := models.Message{
		ID:         uuid.New(),
		SessionID:  arg.SessionID,
		Username:   arg.Username,
		Role:       arg.Role,
		Text:       arg.Text,
		SourceType: arg.SourceType,
		Sources:    arg.Sources,
		CreatedAt:  time.Now().UTC(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, sessionID, username string) ([]models.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Message
	for _, msg := range f.messages {
		if msg.SessionID == sessionID && msg.Username == username {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSessions(ctx context.Context, username string) ([]models.SessionSummary, error) {
	return nil, nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, sessionID, username string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) RenameSession(ctx context.Context, sessionID, username, newText string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) byRole(role models.Role) []models.Message {
	var out []models.Message
	for _, msg := range f.messages {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

type fakeLLM struct {
	streamPayload    string
	streamErr        error
	completeText     string
	completeErr      error
	lastStreamPrompt string
	completeCalled   bool
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, history []models.Message) (string, error) {
	f.completeCalled = true
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completeText, nil
}

func (f *fakeLLM) Stream(ctx context.Context, prompt string, history []models.Message) (*cohere.Stream, error) {
	f.lastStreamPrompt = prompt
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return cohere.NewStream(io.NopCloser(strings.NewReader(f.streamPayload))), nil
}

type fakeSearch struct {
	bundle    *serpapi.EvidenceBundle
	err       error
	lastQuery string
	called    bool
}

func (f *fakeSearch) Search(ctx context.Context, query string) (*serpapi.EvidenceBundle, error) {
	f.called = true
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

func newTestChatService(st *fakeStore, llm *fakeLLM, search *fakeSearch) *ChatService {
	return NewChatService(st, llm, search, 2022)
}

func chatReq(message string) models.ChatRequest {
	return models.ChatRequest{SessionID: "sess-1", Message: message, Username: "alice"}
}

// --- Tests ---

func TestStreamChatPlainHappyPath(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `{"event_type":"stream-start"}
{"event_type":"text-generation","text":"The "}
{"event_type":"text-generation","text":"answer "}
{"event_type":"text-generation","text":"is 42."}
{"event_type":"stream-end"}
`}
	search := &fakeSearch{}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Explain the meaning of life"), sink)

	// Deltas arrive in order, followed by exactly one terminal event.
	require.Len(t, sink.Events, 4)
	assert.Equal(t, "The ", sink.Events[0].Text)
	assert.Equal(t, "answer ", sink.Events[1].Text)
	assert.Equal(t, "is 42.", sink.Events[2].Text)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, models.SourceTypeLLM, last.SourceType)
	assert.Equal(t, []string{}, last.Sources)

	assert.Equal(t, "The answer is 42.", sink.FullText())
	assert.False(t, search.called)

	// Both turns persisted: the user message first, then the full reply.
	users := st.byRole(models.RoleUser)
	require.Len(t, users, 1)
	assert.Equal(t, "Explain the meaning of life", users[0].Text)

	assistants := st.byRole(models.RoleAssistant)
	require.Len(t, assistants, 1)
	assert.Equal(t, "The answer is 42.", assistants[0].Text)
	assert.Equal(t, models.SourceTypeLLM, assistants[0].SourceType)
}

func TestStreamChatAbruptEndStillFinishes(t *testing.T) {
	// Upstream body ends without a stream-end marker.
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `{"event_type":"text-generation","text":"partial "}
{"event_type":"text-generation","text":"reply"}
`}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Tell me something"), sink)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, "partial reply", sink.FullText())

	assistants := st.byRole(models.RoleAssistant)
	require.Len(t, assistants, 1)
	assert.Equal(t, "partial reply", assistants[0].Text)
}

func TestStreamChatSkipsUnparseableLines(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `garbage line
{"event_type":"text-generation","text":"good"}
{"weird":"shape"}
{"event_type":"text-generation","text":" text"}
{"event_type":"stream-end"}
`}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Question"), sink)

	assert.Equal(t, "good text", sink.FullText())
	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
}

func TestStreamChatEmptyOutputNotPersisted(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `{"event_type":"stream-start"}
{"event_type":"stream-end"}
`}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Question"), sink)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, "", sink.FullText())

	// User message persisted, empty assistant turn is not.
	assert.Len(t, st.byRole(models.RoleUser), 1)
	assert.Empty(t, st.byRole(models.RoleAssistant))
}

func TestStreamChatUpstreamOpenFailure(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamErr: errors.New("connection refused")}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Question"), sink)

	// One generic error event and nothing else after it.
	require.Len(t, sink.Events, 1)
	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventError, last.Type)
	assert.Equal(t, clientErrorMessage, last.Err)

	assert.Empty(t, st.byRole(models.RoleAssistant))
}

func TestStreamChatUserPersistFailure(t *testing.T) {
	st := &fakeStore{appendUserErr: errors.New("db down")}
	llm := &fakeLLM{streamPayload: `{"event_type":"text-generation","text":"never sent"}` + "\n"}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Question"), sink)

	require.Len(t, sink.Events, 1)
	assert.Equal(t, models.StreamEventError, sink.Events[0].Type)
	assert.Empty(t, st.messages)
}

func TestStreamChatAssistantPersistFailure(t *testing.T) {
	st := &fakeStore{appendAssistantErr: errors.New("db down")}
	llm := &fakeLLM{streamPayload: `{"event_type":"text-generation","text":"reply"}
{"event_type":"stream-end"}
`}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("Question"), sink)

	// The delta went out before the save failed; the terminal event must be
	// the error, not a finish.
	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventError, last.Type)
}

func TestStreamChatRewriteFailureFailsRequest(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{completeErr: errors.New("model unavailable")}
	search := &fakeSearch{}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("what is the latest on the election"), sink)

	require.Len(t, sink.Events, 1)
	assert.Equal(t, models.StreamEventError, sink.Events[0].Type)
	// No fallback to searching with the raw message.
	assert.False(t, search.called)
	assert.Empty(t, st.byRole(models.RoleAssistant))
}

func TestStreamChatSearchFailureFailsRequest(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{completeText: "election results 2026"}
	search := &fakeSearch{err: errors.New("serpapi 500")}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("what is the latest on the election"), sink)

	require.Len(t, sink.Events, 1)
	assert.Equal(t, models.StreamEventError, sink.Events[0].Type)
	assert.True(t, search.called)
}

func TestStreamChatWebSearchCarriesSources(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{
		completeText: "  election results 2026  ",
		streamPayload: `{"event_type":"text-generation","text":"Based on the results..."}
{"event_type":"stream-end"}
`,
	}
	search := &fakeSearch{bundle: &serpapi.EvidenceBundle{
		Summary: "Candidate A won.",
		Sources: []string{"https://example.com/a", "https://example.com/b"},
	}}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("what is the latest on the election"), sink)

	// The rewritten query is trimmed before searching.
	assert.Equal(t, "election results 2026", search.lastQuery)
	assert.True(t, llm.completeCalled)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, models.SourceTypeWeb, last.SourceType)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, last.Sources)

	// The evidence summary is embedded in the streamed prompt.
	assert.Contains(t, llm.lastStreamPrompt, "Candidate A won.")

	assistants := st.byRole(models.RoleAssistant)
	require.Len(t, assistants, 1)
	assert.Equal(t, models.SourceTypeWeb, assistants[0].SourceType)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, assistants[0].Sources)
}

func TestStreamChatNoResultsSentinelStillFinishes(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{
		completeText: "obscure query",
		streamPayload: `{"event_type":"text-generation","text":"I could not find anything recent."}
{"event_type":"stream-end"}
`,
	}
	search := &fakeSearch{bundle: &serpapi.EvidenceBundle{
		Summary: serpapi.NoResultsSummary,
		Sources: []string{},
	}}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("any news about the merger"), sink)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, models.SourceTypeWeb, last.SourceType)
	assert.Equal(t, []string{}, last.Sources)
	assert.Contains(t, llm.lastStreamPrompt, serpapi.NoResultsSummary)
}

func TestStreamChatGreetingSkipsSearch(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `{"event_type":"text-generation","text":"Hello! How can I help?"}
{"event_type":"stream-end"}
`}
	search := &fakeSearch{}
	svc := newTestChatService(st, llm, search)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("hi, what is the latest news"), sink)

	// Greeting wins over recency signals: no rewrite, no search.
	assert.False(t, llm.completeCalled)
	assert.False(t, search.called)

	last, ok := sink.Terminal()
	require.True(t, ok)
	assert.Equal(t, models.StreamEventFinished, last.Type)
	assert.Equal(t, models.SourceTypeLLM, last.SourceType)
}

func TestStreamChatHistoryExcludesCurrentMessage(t *testing.T) {
	st := &fakeStore{}
	svc := newTestChatService(st, &fakeLLM{streamPayload: `{"event_type":"stream-end"}` + "\n"}, &fakeSearch{})

	// Seed a prior exchange.
	sinkA := &BufferSink{}
	stA := &fakeLLM{streamPayload: `{"event_type":"text-generation","text":"first reply"}
{"event_type":"stream-end"}
`}
	svcA := newTestChatService(st, stA, &fakeSearch{})
	svcA.StreamChat(context.Background(), chatReq("first question"), sinkA)
	require.Len(t, st.messages, 2)

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("second question"), sink)

	// The second user message is appended after the history read.
	texts := make([]string, 0, len(st.messages))
	for _, msg := range st.messages {
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, []string{"first question", "first reply", "second question"}, texts)
}

func TestStreamChatTrimsUserMessage(t *testing.T) {
	st := &fakeStore{}
	llm := &fakeLLM{streamPayload: `{"event_type":"stream-end"}` + "\n"}
	svc := newTestChatService(st, llm, &fakeSearch{})

	sink := &BufferSink{}
	svc.StreamChat(context.Background(), chatReq("  spaced out question  "), sink)

	users := st.byRole(models.RoleUser)
	require.Len(t, users, 1)
	assert.Equal(t, "spaced out question", users[0].Text)
}
