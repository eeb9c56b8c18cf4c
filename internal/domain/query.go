package domain

// CandidateQuery is one synthesized, not-yet-validated SQL statement.
// Immutable; a repair cycle produces a new candidate, never edits one.
type CandidateQuery struct {
	SQL    string    `json:"sql"`
	Intent IntentTag `json:"intent"`
	Sub    SubIntent `json:"sub"`
}

// RejectReason is the closed set of validator rejection reasons
type RejectReason string

const (
	RejectSchemaViolation RejectReason = "SCHEMA_VIOLATION"
	RejectIntentMismatch  RejectReason = "INTENT_MISMATCH"
	RejectReadNotSelect   RejectReason = "READ_NOT_SELECT"
	RejectUnsafeConstruct RejectReason = "UNSAFE_CONSTRUCT"
)

// ValidationResult is the validator's verdict on a candidate query
type ValidationResult struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	Detail   string       `json:"detail,omitempty"`
}

// Accept returns an accepting validation result
func Accept() ValidationResult {
	return ValidationResult{Accepted: true}
}

// Reject returns a rejecting validation result with the given reason
func Reject(reason RejectReason, detail string) ValidationResult {
	return ValidationResult{Accepted: false, Reason: reason, Detail: detail}
}

// OutcomeKind is the closed set of execution outcomes
type OutcomeKind string

const (
	OutcomeRows       OutcomeKind = "ROWS"
	OutcomeCommitted  OutcomeKind = "COMMITTED"
	OutcomeConflict   OutcomeKind = "CONFLICT"
	OutcomeStoreError OutcomeKind = "STORE_ERROR"
)

// RowSet holds the ordered result of a read query
type RowSet struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// ConflictDetail identifies the doctor/time pair whose uniqueness
// constraint blocked a write. AppointmentTime carries the collected
// slot value verbatim; the store already rejected it, so it is never
// re-parsed here.
type ConflictDetail struct {
	DoctorReference string `json:"doctor_reference,omitempty"`
	AppointmentTime string `json:"appointment_time,omitempty"`
}

// ExecutionOutcome is produced exactly once per executed candidate
type ExecutionOutcome struct {
	Kind         OutcomeKind     `json:"kind"`
	Rows         *RowSet         `json:"rows,omitempty"`
	RowsAffected int64           `json:"rows_affected,omitempty"`
	Conflict     *ConflictDetail `json:"conflict,omitempty"`
	Error        string          `json:"error,omitempty"`
}
