package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/medconnect/agent/internal/api/response"
	"github.com/medconnect/agent/internal/pipeline"
	"github.com/medconnect/agent/internal/session"
)

var validate = validator.New()

// ChatHandler handles the conversational endpoint
type ChatHandler struct {
	store        *session.Store
	orchestrator *pipeline.Orchestrator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(store *session.Store, orchestrator *pipeline.Orchestrator) *ChatHandler {
	return &ChatHandler{store: store, orchestrator: orchestrator}
}

type chatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,uuid"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// Chat processes one user utterance within a session. Omitting the
// session id starts a new session; the reply always carries the id to
// continue with.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	id := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			response.BadRequest(w, "invalid session id")
			return
		}
		id = parsed
	}

	sess, release := h.store.Acquire(id)
	defer release()

	reply := h.orchestrator.HandleUtterance(r.Context(), sess, req.Message)
	response.OK(w, reply)
}
