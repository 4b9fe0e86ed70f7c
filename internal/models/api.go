package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// ChatRequest defines the body (or GET query parameters) for the chat
// endpoint.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Username  string `json:"username"`
}

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RenameSessionRequest defines the body for the session rename endpoint.
type RenameSessionRequest struct {
	NewName string `json:"new_name"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Never includes the hashed password.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is one conversation entry as returned by the history
// endpoint.
type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	Role       Role       `json:"role"`
	Text       string     `json:"text"`
	SourceType SourceType `json:"source_type,omitempty"`
	Sources    []string   `json:"sources"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SessionSummary identifies a session in the sidebar listing. Preview is the
// text of the session's earliest message.
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Preview   string `json:"preview"`
}

// DeleteSessionResponse reports how many messages a session delete removed.
type DeleteSessionResponse struct {
	SessionID    string `json:"session_id"`
	DeletedCount int64  `json:"deleted_count"`
}

// RenameSessionResponse confirms a session rename.
type RenameSessionResponse struct {
	SessionID string `json:"session_id"`
	NewName   string `json:"new_name"`
}
