package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/medconnect/agent/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// staticOracle answers every completion with a fixed string
func staticOracle(text string) oracleFunc {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: text}, nil
	}
}

// newTestOrchestrator builds an orchestrator whose classifier,
// extractor and synthesizer oracles are scripted per stage. The
// responder is left without an oracle so replies stay deterministic.
func newTestOrchestrator(classify, extract, synth Oracle, exec QueryExecutor, doctors domain.DoctorRepository) *Orchestrator {
	desc := schema.Default()
	return NewOrchestrator(
		NewClassifier(classify),
		NewSlotExtractor(extract),
		NewResolver(doctors, desc),
		NewSynthesizer(synth, desc),
		NewValidator(desc),
		exec,
		NewResponder(nil),
		3,
	)
}

func singleDoctorRepo(t *testing.T) *MockDoctorRepository {
	t.Helper()
	repo := new(MockDoctorRepository)
	repo.On("SearchByName", mock.Anything, mock.Anything).
		Return([]domain.Doctor{{ID: 2, Name: "Dr Ahmed", Specialty: "Cardiology"}}, nil)
	return repo
}

func TestOrchestrator_ReadFlow(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(c *domain.CandidateQuery) bool {
		return c.Intent == domain.IntentRead
	})).Return(domain.ExecutionOutcome{
		Kind: domain.OutcomeRows,
		Rows: &domain.RowSet{
			Columns:  []string{"name", "specialty"},
			Rows:     [][]any{{"Dr Ahmed", "Cardiology"}},
			RowCount: 1,
		},
	})

	orch := newTestOrchestrator(
		staticOracle("search"),
		staticOracle(`{"doctor_reference": "cardiologists"}`),
		staticOracle("SELECT name, specialty FROM doctors WHERE specialty ILIKE '%cardio%'"),
		exec,
		new(MockDoctorRepository),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess, "Who are the cardiologists?")

	assert.Equal(t, ReplyAnswer, reply.Kind)
	assert.Equal(t, domain.StateDone, reply.State)
	require.NotNil(t, reply.Rows)
	assert.Equal(t, 1, reply.Rows.RowCount)
	exec.AssertExpectations(t)
}

func TestOrchestrator_UnsafeWriteNeverExecutes(t *testing.T) {
	exec := new(MockQueryExecutor)

	orch := newTestOrchestrator(
		staticOracle("book"),
		staticOracle(`{"patient_name": "Ali", "doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00", "reason": "checkup"}`),
		staticOracle("DROP TABLE booked_appointments"),
		exec,
		singleDoctorRepo(t),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess,
		"Book me with Dr Ahmed tomorrow at 10 for a checkup, I'm Ali")

	assert.Equal(t, ReplyQuestion, reply.Kind)
	assert.Equal(t, domain.StateRepairing, reply.State)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestOrchestrator_WriteTargetMustBeMutable(t *testing.T) {
	exec := new(MockQueryExecutor)

	orch := newTestOrchestrator(
		staticOracle("cancel"),
		staticOracle(`{"patient_name": "Ali"}`),
		staticOracle("DELETE FROM doctors WHERE id = 2"),
		exec,
		new(MockDoctorRepository),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess, "Cancel my appointment, I'm Ali")

	assert.Equal(t, ReplyQuestion, reply.Kind)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestOrchestrator_SlotsAccumulateAcrossRepairs(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(domain.ExecutionOutcome{Kind: domain.OutcomeCommitted, RowsAffected: 1})

	extracts := []string{
		`{"doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00"}`,
		`{"patient_name": "Ali", "reason": "checkup"}`,
	}
	turn := 0
	extractor := oracleFunc(func(context.Context, llm.Request) (*llm.Response, error) {
		text := extracts[turn]
		if turn < len(extracts)-1 {
			turn++
		}
		return &llm.Response{Text: text}, nil
	})

	orch := newTestOrchestrator(
		staticOracle("book"),
		extractor,
		staticOracle("INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) VALUES ('Ali', 2, 'checkup', '2026-09-01 10:00')"),
		exec,
		singleDoctorRepo(t),
	)

	sess := domain.NewSession()

	first := orch.HandleUtterance(context.Background(), sess, "Book me with Dr Ahmed tomorrow at 10")
	assert.Equal(t, ReplyQuestion, first.Kind)
	assert.Equal(t, domain.StateRepairing, sess.State)
	assert.Contains(t, first.Text, "patient's name")
	// Already-collected details survive the clarifying question
	assert.Equal(t, "Dr Ahmed", sess.Slots[domain.SlotDoctorReference])
	assert.Equal(t, "2026-09-01 10:00", sess.Slots[domain.SlotAppointmentTime])

	second := orch.HandleUtterance(context.Background(), sess, "It's Ali, for a checkup")
	assert.Equal(t, ReplyAnswer, second.Kind)
	assert.Equal(t, domain.StateDone, sess.State)
	assert.Equal(t, "Dr Ahmed", sess.Slots[domain.SlotDoctorReference])
	exec.AssertExpectations(t)
}

func TestOrchestrator_RepairBoundTerminatesInFailure(t *testing.T) {
	exec := new(MockQueryExecutor)

	// The classifier never recognizes the request, so every turn is a
	// repair until the bound trips
	orch := newTestOrchestrator(
		staticOracle("gibberish"),
		staticOracle(`{}`),
		staticOracle(""),
		exec,
		new(MockDoctorRepository),
	)

	sess := domain.NewSession()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		reply := orch.HandleUtterance(ctx, sess, "asdf qwerty")
		assert.Equal(t, ReplyQuestion, reply.Kind, "turn %d", i)
		assert.Equal(t, domain.StateRepairing, sess.State, "turn %d", i)
	}

	final := orch.HandleUtterance(ctx, sess, "asdf qwerty")
	assert.Equal(t, ReplyFailure, final.Kind)
	assert.Equal(t, domain.StateFailed, sess.State)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)

	// A terminal request does not kill the session: the next utterance
	// starts over with a reset counter
	afterReset := orch.HandleUtterance(ctx, sess, "hello again")
	assert.Equal(t, ReplyQuestion, afterReset.Kind)
	assert.Equal(t, 1, sess.RepairAttempts)
}

func TestOrchestrator_ConflictBecomesRepairQuestion(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(domain.ExecutionOutcome{Kind: domain.OutcomeConflict, Conflict: &domain.ConflictDetail{}})

	orch := newTestOrchestrator(
		staticOracle("book"),
		staticOracle(`{"patient_name": "Ali", "doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00", "reason": "checkup"}`),
		staticOracle("INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) VALUES ('Ali', 2, 'checkup', '2026-09-01 10:00')"),
		exec,
		singleDoctorRepo(t),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess,
		"Book me with Dr Ahmed at 10 tomorrow for a checkup, I'm Ali")

	assert.Equal(t, ReplyQuestion, reply.Kind)
	assert.Equal(t, domain.StateRepairing, sess.State)
	assert.Contains(t, reply.Text, "already booked")
	assert.Equal(t, 1, sess.RepairAttempts)
}

func TestOrchestrator_ConflictRepairTakesNewTime(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(c *domain.CandidateQuery) bool {
		return strings.Contains(c.SQL, "2026-09-01 10:00")
	})).Return(domain.ExecutionOutcome{Kind: domain.OutcomeConflict, Conflict: &domain.ConflictDetail{}})
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(c *domain.CandidateQuery) bool {
		return strings.Contains(c.SQL, "2026-09-02 15:00")
	})).Return(domain.ExecutionOutcome{Kind: domain.OutcomeCommitted, RowsAffected: 1})

	extracts := []string{
		`{"patient_name": "Ali", "doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00", "reason": "checkup"}`,
		`{"appointment_time": "2026-09-02 15:00"}`,
	}
	synths := []string{
		"INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) VALUES ('Ali', 2, 'checkup', '2026-09-01 10:00')",
		"INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) VALUES ('Ali', 2, 'checkup', '2026-09-02 15:00')",
	}
	turn := 0
	extractor := oracleFunc(func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: extracts[turn]}, nil
	})
	var synthPrompts []string
	synth := oracleFunc(func(_ context.Context, req llm.Request) (*llm.Response, error) {
		synthPrompts = append(synthPrompts, req.Prompt)
		return &llm.Response{Text: synths[turn]}, nil
	})

	orch := newTestOrchestrator(staticOracle("book"), extractor, synth, exec, singleDoctorRepo(t))
	sess := domain.NewSession()

	first := orch.HandleUtterance(context.Background(), sess,
		"Book me with Dr Ahmed tomorrow at 10 for a checkup, I'm Ali")
	assert.Equal(t, ReplyQuestion, first.Kind)
	assert.Contains(t, first.Text, "already booked")

	turn = 1
	second := orch.HandleUtterance(context.Background(), sess, "How about 2026-09-02 at 3pm?")

	// The freshly stated time replaces the conflicting one and is what
	// the next candidate is synthesized from
	assert.Equal(t, "2026-09-02 15:00", sess.Slots[domain.SlotAppointmentTime])
	require.Len(t, synthPrompts, 2)
	assert.Contains(t, synthPrompts[1], "2026-09-02 15:00")
	assert.Equal(t, ReplyAnswer, second.Kind)
	assert.Equal(t, domain.StateDone, sess.State)
	exec.AssertExpectations(t)
}

func TestOrchestrator_ZeroRowCancelIsNotSuccess(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(domain.ExecutionOutcome{Kind: domain.OutcomeCommitted, RowsAffected: 0})

	orch := newTestOrchestrator(
		staticOracle("cancel"),
		staticOracle(`{"patient_name": "Nobody"}`),
		staticOracle("UPDATE booked_appointments SET status = 'cancelled' WHERE patient_name ILIKE '%Nobody%'"),
		exec,
		new(MockDoctorRepository),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess, "Cancel my appointment, I'm Nobody")

	assert.Equal(t, ReplyQuestion, reply.Kind)
	assert.Contains(t, reply.Text, "couldn't find an appointment")
}

func TestOrchestrator_AmbiguousDoctorAsksWhich(t *testing.T) {
	exec := new(MockQueryExecutor)
	repo := new(MockDoctorRepository)
	repo.On("SearchByName", mock.Anything, "Dr Khan").Return([]domain.Doctor{
		{ID: 1, Name: "Dr Aisha Khan", Specialty: "Dermatology"},
		{ID: 4, Name: "Dr Bilal Khan", Specialty: "Neurology"},
	}, nil)

	orch := newTestOrchestrator(
		staticOracle("book"),
		staticOracle(`{"patient_name": "Ali", "doctor_reference": "Dr Khan", "appointment_time": "2026-09-01 10:00", "reason": "rash"}`),
		staticOracle(""),
		exec,
		repo,
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess, "Book me with Dr Khan")

	assert.Equal(t, ReplyQuestion, reply.Kind)
	assert.Contains(t, reply.Text, "Dr Aisha Khan")
	assert.Contains(t, reply.Text, "Dr Bilal Khan")
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestOrchestrator_StoreErrorPreservesSlotsWithoutRepairCharge(t *testing.T) {
	exec := new(MockQueryExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(domain.ExecutionOutcome{Kind: domain.OutcomeStoreError, Error: "connection refused"})

	orch := newTestOrchestrator(
		staticOracle("book"),
		staticOracle(`{"patient_name": "Ali", "doctor_reference": "Dr Ahmed", "appointment_time": "2026-09-01 10:00", "reason": "checkup"}`),
		staticOracle("INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) VALUES ('Ali', 2, 'checkup', '2026-09-01 10:00')"),
		exec,
		singleDoctorRepo(t),
	)

	sess := domain.NewSession()
	reply := orch.HandleUtterance(context.Background(), sess,
		"Book me with Dr Ahmed at 10 tomorrow for a checkup, I'm Ali")

	assert.Equal(t, ReplyTransient, reply.Kind)
	assert.Equal(t, domain.StateStart, sess.State)
	assert.Zero(t, sess.RepairAttempts)
	assert.Equal(t, "Ali", sess.Slots[domain.SlotPatientName])
}
