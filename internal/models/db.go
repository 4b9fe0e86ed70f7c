package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message. Only the two fixed values below are
// ever persisted; any presentation-specific casing (prompt labels, provider
// role names) is derived through explicit mapping functions, never by ad hoc
// string transforms at call sites.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PromptLabel returns the capitalized label used when a message is rendered
// into a prompt's chat-history block (e.g. "User: ...").
func (r Role) PromptLabel() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the two persisted roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// SourceType records where an assistant answer was grounded.
// Empty means the message carries no source annotation (user messages).
type SourceType string

const (
	SourceTypeLLM SourceType = "llm"
	SourceTypeWeb SourceType = "web"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}

// Message is one entry in the append-only conversation log. Immutable once
// written, with two documented exceptions: session deletion removes rows, and
// session rename overwrites the text of the earliest user message (the
// session preview).
type Message struct {
	ID         uuid.UUID  `db:"id"`
	SessionID  string     `db:"session_id"`
	Username   string     `db:"username"`
	Role       Role       `db:"role"`
	Text       string     `db:"text"`
	SourceType SourceType `db:"source_type"` // empty, "llm" or "web"
	Sources    []string   `db:"sources"`
	CreatedAt  time.Time  `db:"created_at"`
}
