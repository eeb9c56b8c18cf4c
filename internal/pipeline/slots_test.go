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

func TestSlotExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     domain.Slots
	}{
		{
			"all slots",
			`{"patient_name": "Ali", "doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00", "reason": "checkup"}`,
			domain.Slots{
				domain.SlotPatientName:     "Ali",
				domain.SlotDoctorReference: "Dr Ahmed",
				domain.SlotAppointmentTime: "2026-09-01 10:00",
				domain.SlotReason:          "checkup",
			},
		},
		{
			"empty strings dropped",
			`{"patient_name": "Ali", "doctor_reference": "", "appointment_time": "", "reason": ""}`,
			domain.Slots{domain.SlotPatientName: "Ali"},
		},
		{
			"unknown keys ignored",
			`{"patient_name": "Ali", "insurance_number": "xyz"}`,
			domain.Slots{domain.SlotPatientName: "Ali"},
		},
		{
			"fenced json",
			"```json\n{\"reason\": \"follow-up\"}\n```",
			domain.Slots{domain.SlotReason: "follow-up"},
		},
		{"no json at all", "I could not find any details.", domain.Slots{}},
		{"malformed json", `{"patient_name": `, domain.Slots{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := new(MockOracle)
			oracle.On("Complete", mock.Anything, mock.Anything).
				Return(&llm.Response{Text: tt.response}, nil)

			got := NewSlotExtractor(oracle).Extract(context.Background(), "some utterance")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlotExtractor_OracleFailureYieldsNoSlots(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider unavailable"))

	got := NewSlotExtractor(oracle).Extract(context.Background(), "book me in")
	assert.Empty(t, got)
}
