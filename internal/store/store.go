package store

import (
	"context"
	"errors"
	"time"

	db_models "chatstream-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// AppendMessageParams contains parameters for appending a message to the
// conversation log. CreatedAt may be zero, in which case the implementation
// assigns the current time; ties within the same timestamp are broken by
// insertion order as persisted.
type AppendMessageParams struct {
	ID         uuid.UUID
	SessionID  string
	Username   string
	Role       db_models.Role
	Text       string
	SourceType db_models.SourceType // empty for user messages
	Sources    []string
	CreatedAt  time.Time
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByUsername(ctx context.Context, username string) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error

	// Conversation log operations. The log is append-only except for the two
	// documented mutations: DeleteSession and RenameSession.
	AppendMessage(ctx context.Context, arg AppendMessageParams) (*db_models.Message, error)
	ListMessages(ctx context.Context, sessionID, username string) ([]db_models.Message, error)
	ListSessions(ctx context.Context, username string) ([]db_models.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID, username string) (int64, error)
	RenameSession(ctx context.Context, sessionID, username, newText string) (int64, error)
}
