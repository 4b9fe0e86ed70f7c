// Package cohere is a minimal client for the Cohere v1 chat API, covering the
// two call shapes this backend needs: a single-shot completion and a
// line-delimited streaming completion.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatstream-backend/internal/models"
)

// Config carries the provider settings the client is constructed with.
type Config struct {
	APIKey      string
	APIURL      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client talks to the Cohere chat endpoint. Construct once at process start
// and share; it is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		// No overall timeout: the same client serves long-lived streaming
		// responses. Dial/TLS limits come from http.DefaultTransport.
		httpClient: &http.Client{},
	}
}

// chatRequest is the Cohere chat API payload.
type chatRequest struct {
	Message     string             `json:"message"`
	Model       string             `json:"model"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
	ChatHistory []chatHistoryEntry `json:"chat_history,omitempty"`
}

type chatHistoryEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// providerRole maps the persisted role enumeration to Cohere's chat-history
// role names. Kept as an explicit table so no other layer does string casing.
func providerRole(r models.Role) string {
	switch r {
	case models.RoleAssistant:
		return "CHATBOT"
	default:
		return "USER"
	}
}

func (c *Client) newRequest(ctx context.Context, prompt string, history []models.Message, stream bool) (*http.Request, error) {
	payload := chatRequest{
		Message:     prompt,
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      stream,
	}
	for _, msg := range history {
		payload.ChatHistory = append(payload.ChatHistory, chatHistoryEntry{
			Role:    providerRole(msg.Role),
			Message: msg.Text,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Complete sends a non-streaming chat call and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string, history []models.Message) (string, error) {
	req, err := c.newRequest(ctx, prompt, history, false)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cohere error: status %d, body: %s", resp.StatusCode, truncate(body, 512))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Text, nil
}

// Stream opens a streaming chat call. The returned Stream yields one tagged
// Event per upstream line; the caller owns closing it. A non-2xx status is
// reported here, before any event is produced.
func (c *Client) Stream(ctx context.Context, prompt string, history []models.Message) (*Stream, error) {
	req, err := c.newRequest(ctx, prompt, history, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere stream request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("cohere stream error: status %d, body: %s", resp.StatusCode, body)
	}

	return NewStream(resp.Body), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Default request timeout applied by callers that want one on non-streaming
// calls via context.WithTimeout.
const DefaultCompleteTimeout = 30 * time.Second
