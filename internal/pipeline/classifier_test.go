package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     domain.Intent
	}{
		{"search", "search", domain.Intent{Tag: domain.IntentRead, Sub: domain.SubIntentSearch}},
		{"book", "book", domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentBook}},
		{"reschedule", "reschedule", domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentReschedule}},
		{"cancel", "cancel", domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentCancel}},
		{"uppercase label", "BOOK", domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentBook}},
		{"label with chatter", "book\n\nThe user wants an appointment.", domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentBook}},
		{"quoted label", `"cancel"`, domain.Intent{Tag: domain.IntentWrite, Sub: domain.SubIntentCancel}},
		{"outside the enum", "greeting", domain.Intent{Tag: domain.IntentRead, Sub: domain.SubIntentUnknown}},
		{"empty output", "", domain.Intent{Tag: domain.IntentRead, Sub: domain.SubIntentUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := new(MockOracle)
			oracle.On("Complete", mock.Anything, mock.Anything).
				Return(&llm.Response{Text: tt.response}, nil)

			got := NewClassifier(oracle).Classify(context.Background(), "some utterance", domain.Slots{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_OracleFailureIsUnknown(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider unavailable"))

	got := NewClassifier(oracle).Classify(context.Background(), "book me in", domain.Slots{})
	assert.Equal(t, domain.SubIntentUnknown, got.Sub)
}
