package pipeline

import (
	"context"
	"fmt"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/medconnect/agent/internal/schema"
	"github.com/rs/zerolog/log"
)

// Synthesizer produces one candidate query per call from the classified
// intent, resolved entities and collected slots. It refuses to run with
// missing slots or an ambiguous doctor: disambiguation is the
// orchestrator's job, the synthesizer never guesses.
type Synthesizer struct {
	oracle Oracle
	schema *schema.Descriptor
}

// NewSynthesizer creates a query synthesizer
func NewSynthesizer(oracle Oracle, desc *schema.Descriptor) *Synthesizer {
	return &Synthesizer{oracle: oracle, schema: desc}
}

// Synthesize returns a candidate query for the current cycle
func (s *Synthesizer) Synthesize(ctx context.Context, intent domain.Intent, doctor *domain.ResolvedEntity, slots domain.Slots, utterance string) (*domain.CandidateQuery, error) {
	if missing := slots.Missing(intent.RequiredSlots()); len(missing) > 0 {
		return nil, &domain.IncompleteSlotsError{Missing: missing}
	}
	if doctor != nil && doctor.Ambiguous {
		return nil, &domain.EntityUnresolvedError{
			Reference:  doctor.Reference,
			Ambiguous:  true,
			Candidates: doctor.Candidates,
		}
	}

	resp, err := s.oracle.Complete(ctx, llm.Request{
		System: fmt.Sprintf(synthesizerSystem, s.schema.DDL()),
		Prompt: buildSynthesizerPrompt(intent, doctor, slots, utterance),
	})
	if err != nil {
		return nil, fmt.Errorf("query synthesis failed: %w", err)
	}

	sql := llm.ExtractSQL(resp.Text)
	if sql == "" {
		return nil, fmt.Errorf("query synthesis produced empty output")
	}

	log.Debug().Str("sql", sql).Str("sub", string(intent.Sub)).Msg("synthesized candidate query")
	return &domain.CandidateQuery{
		SQL:    sql,
		Intent: intent.Tag,
		Sub:    intent.Sub,
	}, nil
}
