package pipeline

import (
	"context"
	"strings"

	"github.com/medconnect/agent/internal/llm"
	"github.com/rs/zerolog/log"
)

// Responder phrases a turn outcome in the assistant's voice. Oracle
// failures fall back to the deterministic summary so a turn always
// produces output.
type Responder struct {
	oracle Oracle
}

// NewResponder creates a responder
func NewResponder(oracle Oracle) *Responder {
	return &Responder{oracle: oracle}
}

// Phrase returns a user-facing reply for the given outcome summary
func (r *Responder) Phrase(ctx context.Context, utterance, summary string) string {
	if r.oracle == nil {
		return summary
	}

	resp, err := r.oracle.Complete(ctx, llm.Request{
		System: responderSystem,
		Prompt: buildResponderPrompt(utterance, summary),
	})
	if err != nil {
		log.Warn().Err(err).Msg("responder oracle failed, using templated reply")
		return summary
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return summary
	}
	return text
}
