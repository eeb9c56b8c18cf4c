package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/medconnect/agent/internal/domain"
	"github.com/rs/zerolog/log"
)

// ReplyKind is the closed set of per-turn outputs the transport delivers
type ReplyKind string

const (
	ReplyAnswer    ReplyKind = "answer"
	ReplyQuestion  ReplyKind = "question"
	ReplyFailure   ReplyKind = "failure"
	ReplyTransient ReplyKind = "transient_error"
)

// Reply is the result of processing one utterance
type Reply struct {
	SessionID uuid.UUID           `json:"session_id"`
	Kind      ReplyKind           `json:"kind"`
	Text      string              `json:"text"`
	State     domain.SessionState `json:"state"`
	Intent    *domain.Intent      `json:"intent,omitempty"`
	Rows      *domain.RowSet      `json:"rows,omitempty"`
}

// Orchestrator drives the per-turn state machine. It owns the session's
// slot-filling state, bounds repair iterations, and decides between a
// clarifying question and failure. Turns for one session are serialized
// by the session store before they reach here.
type Orchestrator struct {
	classifier  *Classifier
	extractor   *SlotExtractor
	resolver    *Resolver
	synthesizer *Synthesizer
	validator   *Validator
	executor    QueryExecutor
	responder   *Responder
	maxRepairs  int
}

// NewOrchestrator wires the pipeline stages together
func NewOrchestrator(
	classifier *Classifier,
	extractor *SlotExtractor,
	resolver *Resolver,
	synthesizer *Synthesizer,
	validator *Validator,
	executor QueryExecutor,
	responder *Responder,
	maxRepairs int,
) *Orchestrator {
	if maxRepairs <= 0 {
		maxRepairs = 3
	}
	return &Orchestrator{
		classifier:  classifier,
		extractor:   extractor,
		resolver:    resolver,
		synthesizer: synthesizer,
		validator:   validator,
		executor:    executor,
		responder:   responder,
		maxRepairs:  maxRepairs,
	}
}

// HandleUtterance processes one user turn through the full pipeline:
// classify, resolve, synthesize, validate, execute. Every failure path
// either asks a clarifying question or ends the request explicitly.
func (o *Orchestrator) HandleUtterance(ctx context.Context, sess *domain.Session, text string) Reply {
	// A terminal state ends the booking request, not the session; the
	// next utterance starts a fresh request with the transcript intact
	if sess.State.Terminal() {
		sess.ResetRequest()
	}
	sess.Record(domain.RoleUser, text)

	sess.State = domain.StateClassifying
	intent := o.classifier.Classify(ctx, text, sess.Slots)
	if !intent.Known() && sess.Intent != nil {
		// A repair answer like "tomorrow at 3pm" rarely re-classifies;
		// the request's intent carries forward
		intent = *sess.Intent
	}

	extracted := o.extractor.Extract(ctx, text)
	if ref := extracted[domain.SlotDoctorReference]; ref != "" && ref != sess.Slots[domain.SlotDoctorReference] {
		// A new doctor reference invalidates any cached resolution
		sess.Doctor = nil
	}
	sess.Slots.Merge(extracted)

	if !intent.Known() {
		return o.repair(sess, intent,
			"I can help you search for doctors, or book, reschedule and cancel appointments. What would you like to do?")
	}
	sess.Intent = &intent

	sess.State = domain.StateResolving
	if reply, halted := o.resolveDoctor(ctx, sess, intent); halted {
		return reply
	}

	sess.State = domain.StateSynthesizing
	candidate, err := o.synthesizer.Synthesize(ctx, intent, sess.Doctor, sess.Slots, text)
	if err != nil {
		var incomplete *domain.IncompleteSlotsError
		if errors.As(err, &incomplete) {
			return o.repair(sess, intent, askForSlots(incomplete.Missing))
		}
		log.Warn().Err(err).Msg("synthesis failed")
		return o.repair(sess, intent,
			"I couldn't turn that into an action. Could you rephrase your request?")
	}

	sess.State = domain.StateValidating
	verdict := o.validator.Validate(candidate)
	if !verdict.Accepted {
		log.Warn().
			Str("reason", string(verdict.Reason)).
			Str("detail", verdict.Detail).
			Str("sql", candidate.SQL).
			Msg("candidate query rejected")
		return o.repair(sess, intent,
			"I couldn't safely process that request. Could you restate it, including the doctor, date and time?")
	}

	sess.State = domain.StateExecuting
	outcome := o.executor.Execute(ctx, candidate)

	switch outcome.Kind {
	case domain.OutcomeRows:
		return o.done(ctx, sess, intent, text, summarizeRows(outcome.Rows), outcome.Rows)

	case domain.OutcomeCommitted:
		if outcome.RowsAffected == 0 &&
			(intent.Sub == domain.SubIntentReschedule || intent.Sub == domain.SubIntentCancel) {
			return o.repair(sess, intent, fmt.Sprintf(
				"I couldn't find an appointment under the name %q. Could you check the patient name?",
				sess.Slots[domain.SlotPatientName]))
		}
		return o.done(ctx, sess, intent, text, summarizeCommit(intent, sess.Slots), nil)

	case domain.OutcomeConflict:
		if outcome.Conflict == nil {
			outcome.Conflict = &domain.ConflictDetail{}
		}
		outcome.Conflict.DoctorReference = sess.Slots[domain.SlotDoctorReference]
		outcome.Conflict.AppointmentTime = sess.Slots[domain.SlotAppointmentTime]
		return o.repair(sess, intent, fmt.Sprintf(
			"That slot with %s is already booked. Would another time work for you?",
			sess.Slots[domain.SlotDoctorReference]))

	default:
		sess.State = domain.StateStart
		text := "I'm having trouble reaching the scheduling system right now. Please try again in a moment; your details are saved."
		sess.Record(domain.RoleAssistant, text)
		return Reply{
			SessionID: sess.ID,
			Kind:      ReplyTransient,
			Text:      text,
			State:     sess.State,
			Intent:    &intent,
		}
	}
}

// resolveDoctor resolves the doctor reference for write intents. Reads
// pass through: a specialty like "cardiologists" is a filter, not an
// entity, and is handled in synthesis.
func (o *Orchestrator) resolveDoctor(ctx context.Context, sess *domain.Session, intent domain.Intent) (Reply, bool) {
	ref := sess.Slots[domain.SlotDoctorReference]
	if intent.Tag != domain.IntentWrite || ref == "" {
		return Reply{}, false
	}

	if sess.Doctor == nil || sess.Doctor.Reference != ref {
		entity, err := o.resolver.ResolveDoctor(ctx, ref)
		if err != nil {
			log.Error().Err(err).Msg("doctor resolution failed")
			sess.State = domain.StateStart
			text := "I couldn't check our doctor list just now. Please try again in a moment."
			sess.Record(domain.RoleAssistant, text)
			return Reply{SessionID: sess.ID, Kind: ReplyTransient, Text: text, State: sess.State, Intent: &intent}, true
		}
		sess.Doctor = &entity
	}

	if sess.Doctor.Ambiguous {
		names := make([]string, len(sess.Doctor.Candidates))
		for i, d := range sess.Doctor.Candidates {
			names[i] = fmt.Sprintf("%s (%s)", d.Name, d.Specialty)
		}
		return o.repair(sess, intent, fmt.Sprintf(
			"I found several doctors matching %q: %s. Which one did you mean?",
			ref, strings.Join(names, ", "))), true
	}
	if !sess.Doctor.Resolved {
		return o.repair(sess, intent, fmt.Sprintf(
			"I couldn't find a doctor matching %q. Could you check the name?", ref)), true
	}
	return Reply{}, false
}

// repair asks a clarifying question and loops the session back, or
// fails the request when the bounded counter is exhausted
func (o *Orchestrator) repair(sess *domain.Session, intent domain.Intent, question string) Reply {
	sess.RepairAttempts++
	if sess.RepairAttempts > o.maxRepairs {
		sess.State = domain.StateFailed
		text := fmt.Sprintf(
			"I'm sorry, I couldn't complete this request after %d attempts. %s You're welcome to start over with a new request.",
			o.maxRepairs, unresolvedSummary(sess))
		sess.Record(domain.RoleAssistant, text)
		log.Info().Err(domain.ErrRepairExhausted).Str("session_id", sess.ID.String()).Msg("request failed")
		return Reply{SessionID: sess.ID, Kind: ReplyFailure, Text: text, State: sess.State, Intent: &intent}
	}

	sess.State = domain.StateRepairing
	sess.Record(domain.RoleAssistant, question)
	return Reply{SessionID: sess.ID, Kind: ReplyQuestion, Text: question, State: sess.State, Intent: &intent}
}

// done commits the turn as a successful answer
func (o *Orchestrator) done(ctx context.Context, sess *domain.Session, intent domain.Intent, utterance, summary string, rows *domain.RowSet) Reply {
	sess.State = domain.StateDone
	text := o.responder.Phrase(ctx, utterance, summary)
	sess.Record(domain.RoleAssistant, text)
	return Reply{
		SessionID: sess.ID,
		Kind:      ReplyAnswer,
		Text:      text,
		State:     sess.State,
		Intent:    &intent,
		Rows:      rows,
	}
}

var slotQuestions = map[domain.SlotName]string{
	domain.SlotPatientName:     "the patient's name",
	domain.SlotDoctorReference: "which doctor you'd like to see",
	domain.SlotAppointmentTime: "the date and time",
	domain.SlotReason:          "the reason for the visit",
}

func askForSlots(missing []domain.SlotName) string {
	asks := make([]string, len(missing))
	for i, name := range missing {
		asks[i] = slotQuestions[name]
	}
	return fmt.Sprintf("To go ahead I still need %s. Could you provide that?", strings.Join(asks, ", "))
}

func summarizeRows(rows *domain.RowSet) string {
	if rows == nil || rows.RowCount == 0 {
		return "The search returned no results."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("The search returned %d result(s). Columns: %s.\n", rows.RowCount, strings.Join(rows.Columns, ", ")))
	limit := rows.RowCount
	if limit > 10 {
		limit = 10
	}
	for _, row := range rows.Rows[:limit] {
		sb.WriteString(fmt.Sprintf("%v\n", row))
	}
	return sb.String()
}

func summarizeCommit(intent domain.Intent, slots domain.Slots) string {
	switch intent.Sub {
	case domain.SubIntentBook:
		return fmt.Sprintf("Appointment booked with %s at %s for %s.",
			slots[domain.SlotDoctorReference], slots[domain.SlotAppointmentTime], slots[domain.SlotReason])
	case domain.SubIntentReschedule:
		return fmt.Sprintf("Appointment for %s moved to %s.",
			slots[domain.SlotPatientName], slots[domain.SlotAppointmentTime])
	case domain.SubIntentCancel:
		return fmt.Sprintf("Appointment for %s cancelled.", slots[domain.SlotPatientName])
	default:
		return "Your request has been completed."
	}
}

func unresolvedSummary(sess *domain.Session) string {
	if sess.Intent == nil {
		return "I wasn't able to work out what you needed."
	}
	missing := sess.Slots.Missing(sess.Intent.RequiredSlots())
	if len(missing) == 0 {
		return "The request kept being rejected or conflicting with existing bookings."
	}
	asks := make([]string, len(missing))
	for i, name := range missing {
		asks[i] = slotQuestions[name]
	}
	return fmt.Sprintf("I was still missing %s.", strings.Join(asks, ", "))
}
