package postgres

import (
	"context"
	"fmt"
	"time"

	db_models "chatstream-backend/internal/models"
	"chatstream-backend/internal/store"

	"github.com/google/uuid"
)

// --- Conversation Log Methods ---

const appendMessage = `-- name: AppendMessage :one
INSERT INTO messages (
    id, session_id, username, role, text, source_type, sources, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING id, session_id, username, role, text, source_type, sources, created_at;
`

func (s *PostgresStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*db_models.Message, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	sources := arg.Sources
	if sources == nil {
		sources = []string{}
	}

	row := s.db.QueryRow(ctx, appendMessage,
		id,
		arg.SessionID,
		arg.Username,
		string(arg.Role),
		arg.Text,
		nullIfEmpty(string(arg.SourceType)), // NULL rather than '' for absent source type
		sources,
		createdAt,
	)

	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("error scanning appended message: %w", err)
	}
	return msg, nil
}

const listMessages = `-- name: ListMessages :many
SELECT id, session_id, username, role, text, source_type, sources, created_at
FROM messages
WHERE session_id = $1 AND username = $2
ORDER BY created_at ASC, seq ASC;
`

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID, username string) ([]db_models.Message, error) {
	rows, err := s.db.Query(ctx, listMessages, sessionID, username)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var items []db_models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		items = append(items, *msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return items, nil
}

// listSessions picks each session's earliest message as its preview, then
// orders sessions newest-first by when they started.
const listSessions = `-- name: ListSessions :many
SELECT session_id, text FROM (
    SELECT DISTINCT ON (session_id) session_id, text, created_at
    FROM messages
    WHERE username = $1
    ORDER BY session_id, created_at ASC, seq ASC
) firsts
ORDER BY firsts.created_at DESC;
`

func (s *PostgresStore) ListSessions(ctx context.Context, username string) ([]db_models.SessionSummary, error) {
	rows, err := s.db.Query(ctx, listSessions, username)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	var items []db_models.SessionSummary
	for rows.Next() {
		var sum db_models.SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Preview); err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		items = append(items, sum)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return items, nil
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM messages
WHERE session_id = $1 AND username = $2;
`

// DeleteSession removes every message of the session and returns how many
// rows were deleted. Returns store.ErrNotFound when nothing matched.
func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID, username string) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteSession, sessionID, username)
	if err != nil {
		return 0, fmt.Errorf("error executing delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, store.ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// renameSession overwrites the text of the session's earliest user message,
// which is what the sidebar shows as the session preview.
const renameSession = `-- name: RenameSession :exec
UPDATE messages
SET text = $3
WHERE id = (
    SELECT id FROM messages
    WHERE session_id = $1 AND username = $2 AND role = 'user'
    ORDER BY created_at ASC, seq ASC
    LIMIT 1
);
`

func (s *PostgresStore) RenameSession(ctx context.Context, sessionID, username, newText string) (int64, error) {
	tag, err := s.db.Exec(ctx, renameSession, sessionID, username, newText)
	if err != nil {
		return 0, fmt.Errorf("error executing rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, store.ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*db_models.Message, error) {
	var (
		msg        db_models.Message
		role       string
		sourceType *string
	)
	if err := row.Scan(
		&msg.ID,
		&msg.SessionID,
		&msg.Username,
		&role,
		&msg.Text,
		&sourceType,
		&msg.Sources,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	msg.Role = db_models.Role(role)
	if sourceType != nil {
		msg.SourceType = db_models.SourceType(*sourceType)
	}
	if msg.Sources == nil {
		msg.Sources = []string{}
	}
	return &msg, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
