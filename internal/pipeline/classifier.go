package pipeline

import (
	"context"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/rs/zerolog/log"
)

// Classifier maps an utterance onto the closed intent enum. The oracle
// produces a free-form label; anything outside the enum becomes unknown.
type Classifier struct {
	oracle Oracle
}

// NewClassifier creates an intent classifier
func NewClassifier(oracle Oracle) *Classifier {
	return &Classifier{oracle: oracle}
}

var intentLabels = map[string]domain.Intent{
	"search":     {Tag: domain.IntentRead, Sub: domain.SubIntentSearch},
	"book":       {Tag: domain.IntentWrite, Sub: domain.SubIntentBook},
	"reschedule": {Tag: domain.IntentWrite, Sub: domain.SubIntentReschedule},
	"cancel":     {Tag: domain.IntentWrite, Sub: domain.SubIntentCancel},
}

// Classify labels one utterance. It never fails: oracle errors and
// malformed output both map to the unknown sub-intent, which the
// orchestrator treats as a repair trigger.
func (c *Classifier) Classify(ctx context.Context, utterance string, slots domain.Slots) domain.Intent {
	resp, err := c.oracle.Complete(ctx, llm.Request{
		System: classifierSystem,
		Prompt: buildClassifierPrompt(utterance, slots),
	})
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed")
		return domain.Intent{Tag: domain.IntentRead, Sub: domain.SubIntentUnknown}
	}

	label := llm.ExtractLabel(resp.Text)
	intent, ok := intentLabels[label]
	if !ok {
		log.Debug().Str("label", label).Msg("unrecognized intent label")
		return domain.Intent{Tag: domain.IntentRead, Sub: domain.SubIntentUnknown}
	}

	log.Debug().Str("tag", string(intent.Tag)).Str("sub", string(intent.Sub)).Msg("classified intent")
	return intent
}
