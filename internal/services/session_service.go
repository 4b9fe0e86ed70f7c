package services

import (
	"context"

	"chatstream-backend/internal/models"
	"chatstream-backend/internal/store"
)

// SessionService exposes read and maintenance operations over stored
// conversations. All lookups are scoped to the requesting username so one
// user can never touch another's sessions.
type SessionService struct {
	store store.Store
}

func NewSessionService(s store.Store) *SessionService {
	return &SessionService{store: s}
}

// GetHistory returns the full message list for a session in conversation
// order.
func (s *SessionService) GetHistory(ctx context.Context, sessionID, username string) ([]models.Message, error) {
	return s.store.ListMessages(ctx, sessionID, username)
}

// ListSessions returns one summary per session the user owns, most recently
// started first. The preview is the earliest user message of the session.
func (s *SessionService) ListSessions(ctx context.Context, username string) ([]models.SessionSummary, error) {
	return s.store.ListSessions(ctx, username)
}

// DeleteSession removes every message of the session and reports how many
// were deleted. Returns store.ErrNotFound when the session has no messages
// for this user.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, username string) (int64, error) {
	return s.store.DeleteSession(ctx, sessionID, username)
}

// RenameSession overwrites the text of the session's earliest user message,
// which is what session listings show as the preview.
func (s *SessionService) RenameSession(ctx context.Context, sessionID, username, newName string) error {
	matched, err := s.store.RenameSession(ctx, sessionID, username, newName)
	if err != nil {
		return err
	}
	if matched == 0 {
		return store.ErrNotFound
	}
	return nil
}
