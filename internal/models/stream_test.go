package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalFrame(t *testing.T, e StreamEvent) string {
	t.Helper()
	b, err := json.Marshal(e.Frame())
	require.NoError(t, err)
	return string(b)
}

func TestStreamEventFrames(t *testing.T) {
	delta := StreamEvent{Type: StreamEventTextDelta, Text: "chunk"}
	assert.JSONEq(t, `{"response":"chunk"}`, marshalFrame(t, delta))

	finished := StreamEvent{Type: StreamEventFinished, SourceType: SourceTypeWeb, Sources: []string{"https://a", "https://b"}}
	assert.JSONEq(t, `{"is_finished":true,"source_type":"web","sources":["https://a","https://b"]}`, marshalFrame(t, finished))

	failed := StreamEvent{Type: StreamEventError, Err: "boom"}
	assert.JSONEq(t, `{"error":"boom","is_finished":true}`, marshalFrame(t, failed))
}

func TestFinishedFrameNilSourcesBecomesEmptyArray(t *testing.T) {
	finished := StreamEvent{Type: StreamEventFinished, SourceType: SourceTypeLLM}
	assert.JSONEq(t, `{"is_finished":true,"source_type":"llm","sources":[]}`, marshalFrame(t, finished))
}

func TestStreamEventTerminal(t *testing.T) {
	assert.False(t, StreamEvent{Type: StreamEventTextDelta}.Terminal())
	assert.True(t, StreamEvent{Type: StreamEventFinished}.Terminal())
	assert.True(t, StreamEvent{Type: StreamEventError}.Terminal())
}

func TestRolePromptLabel(t *testing.T) {
	assert.Equal(t, "User", RoleUser.PromptLabel())
	assert.Equal(t, "Assistant", RoleAssistant.PromptLabel())
}
