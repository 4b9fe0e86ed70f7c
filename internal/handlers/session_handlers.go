package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chatstream-backend/internal/models"
	"chatstream-backend/internal/store"
	"chatstream-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// SessionService defines the interface expected from the session service.
type SessionService interface {
	GetHistory(ctx context.Context, sessionID, username string) ([]models.Message, error)
	ListSessions(ctx context.Context, username string) ([]models.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID, username string) (int64, error)
	RenameSession(ctx context.Context, sessionID, username, newName string) error
}

type SessionHandler struct {
	sessionService SessionService
}

func NewSessionHandler(sessionSvc SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionSvc,
	}
}

// HandleGetHistory handles GET /chat/{sessionID}?username=...
func (h *SessionHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	username := r.URL.Query().Get("username")
	if sessionID == "" || username == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session_id and username are required")
		return
	}

	messages, err := h.sessionService.GetHistory(r.Context(), sessionID, username)
	if err != nil {
		log.Printf("GetHistory handler failed for session %s: %v", sessionID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load session history")
		return
	}

	resp := make([]models.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, models.MessageResponse{
			ID:         msg.ID,
			Role:       msg.Role,
			Text:       msg.Text,
			SourceType: msg.SourceType,
			Sources:    msg.Sources,
			CreatedAt:  msg.CreatedAt,
		})
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListSessions handles GET /sessions?username=...
func (h *SessionHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		httputil.RespondError(w, http.StatusBadRequest, "username is required")
		return
	}

	sessions, err := h.sessionService.ListSessions(r.Context(), username)
	if err != nil {
		log.Printf("ListSessions handler failed for user %s: %v", username, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// HandleDeleteSession handles DELETE /sessions/{sessionID}?username=...
func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	username := r.URL.Query().Get("username")
	if sessionID == "" || username == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session_id and username are required")
		return
	}

	deleted, err := h.sessionService.DeleteSession(r.Context(), sessionID, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("DeleteSession handler failed for session %s: %v", sessionID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	resp := models.DeleteSessionResponse{
		SessionID:    sessionID,
		DeletedCount: deleted,
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleRenameSession handles PUT /sessions/{sessionID}/rename?username=...
func (h *SessionHandler) HandleRenameSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	username := r.URL.Query().Get("username")
	if sessionID == "" || username == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session_id and username are required")
		return
	}

	var req models.RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.NewName == "" {
		httputil.RespondError(w, http.StatusBadRequest, "new_name is required")
		return
	}

	err := h.sessionService.RenameSession(r.Context(), sessionID, username, req.NewName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("RenameSession handler failed for session %s: %v", sessionID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to rename session")
		return
	}

	resp := models.RenameSessionResponse{
		SessionID: sessionID,
		NewName:   req.NewName,
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
