package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionState represents the pipeline state a session is currently in
type SessionState string

const (
	StateStart        SessionState = "start"
	StateClassifying  SessionState = "classifying"
	StateResolving    SessionState = "resolving"
	StateSynthesizing SessionState = "synthesizing"
	StateValidating   SessionState = "validating"
	StateExecuting    SessionState = "executing"
	StateRepairing    SessionState = "repairing"
	StateDone         SessionState = "done"
	StateFailed       SessionState = "failed"
)

// Terminal reports whether the current booking request is finished
func (s SessionState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TurnRole represents the author of a conversation turn
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one utterance or reply in a session, immutable once recorded
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SlotName identifies a piece of information the pipeline collects
// before a write can be synthesized
type SlotName string

const (
	SlotPatientName     SlotName = "patient_name"
	SlotDoctorReference SlotName = "doctor_reference"
	SlotAppointmentTime SlotName = "appointment_time"
	SlotReason          SlotName = "reason"
)

// AllSlots lists every slot the extractor is allowed to fill
var AllSlots = []SlotName{SlotPatientName, SlotDoctorReference, SlotAppointmentTime, SlotReason}

// Slots maps slot names to collected values
type Slots map[SlotName]string

// Merge copies non-empty values from other into s. A freshly stated
// value replaces the old one, so "would another time work?" answers
// take effect; an empty extraction never clears a collected slot.
func (s Slots) Merge(other Slots) {
	for name, value := range other {
		if value == "" {
			continue
		}
		s[name] = value
	}
}

// Missing returns the subset of required that has no value yet
func (s Slots) Missing(required []SlotName) []SlotName {
	var missing []SlotName
	for _, name := range required {
		if s[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Clone returns an independent copy of the slot map
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Session is one conversation with one user. It is owned exclusively by
// the orchestrator; a turn mutates it only while the session store holds
// the per-session lock.
type Session struct {
	ID             uuid.UUID       `json:"id"`
	Turns          []Turn          `json:"turns"`
	Slots          Slots           `json:"slots"`
	State          SessionState    `json:"state"`
	Intent         *Intent         `json:"intent,omitempty"`
	Doctor         *ResolvedEntity `json:"doctor,omitempty"`
	RepairAttempts int             `json:"repair_attempts"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewSession creates an empty session in the start state
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Slots:     make(Slots),
		State:     StateStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Record appends a turn to the session transcript
func (s *Session) Record(role TurnRole, content string) {
	now := time.Now()
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, CreatedAt: now})
	s.UpdatedAt = now
}

// ResetRequest clears per-request state so the session can start a new
// booking request after reaching a terminal state. Slots and transcript
// are intentionally kept.
func (s *Session) ResetRequest() {
	s.State = StateStart
	s.Intent = nil
	s.RepairAttempts = 0
}
