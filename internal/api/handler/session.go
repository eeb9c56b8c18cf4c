package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medconnect/agent/internal/api/response"
	"github.com/medconnect/agent/internal/session"
)

// SessionHandler exposes session inspection and teardown
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get returns the current session state and transcript
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	sess, ok := h.store.Snapshot(id)
	if !ok {
		response.NotFound(w, "session not found")
		return
	}

	response.OK(w, sess)
}

// Delete ends a session immediately
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	h.store.Delete(id)
	response.NoContent(w)
}
