package pipeline

import (
	"context"
	"encoding/json"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/rs/zerolog/log"
)

// SlotExtractor pulls booking details out of an utterance. The oracle's
// JSON is parsed defensively: unknown keys are dropped and parse
// failures yield an empty slot set, never an error for the turn.
type SlotExtractor struct {
	oracle Oracle
}

// NewSlotExtractor creates a slot extractor
func NewSlotExtractor(oracle Oracle) *SlotExtractor {
	return &SlotExtractor{oracle: oracle}
}

// Extract returns the slots mentioned in the utterance
func (e *SlotExtractor) Extract(ctx context.Context, utterance string) domain.Slots {
	resp, err := e.oracle.Complete(ctx, llm.Request{
		System: extractorSystem,
		Prompt: buildExtractorPrompt(utterance),
	})
	if err != nil {
		log.Warn().Err(err).Msg("slot extraction failed")
		return domain.Slots{}
	}

	payload := llm.ExtractJSON(resp.Text)
	if payload == "" {
		log.Debug().Msg("no JSON in slot extraction output")
		return domain.Slots{}
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		log.Debug().Err(err).Msg("malformed slot extraction JSON")
		return domain.Slots{}
	}

	slots := domain.Slots{}
	for _, name := range domain.AllSlots {
		if value, ok := raw[string(name)]; ok && value != "" {
			slots[name] = value
		}
	}
	return slots
}
