package domain

// IntentTag is the coarse read/write classification of an utterance
type IntentTag string

const (
	IntentRead  IntentTag = "READ"
	IntentWrite IntentTag = "WRITE"
)

// SubIntent refines an intent into a concrete operation
type SubIntent string

const (
	SubIntentSearch     SubIntent = "search"
	SubIntentBook       SubIntent = "book"
	SubIntentReschedule SubIntent = "reschedule"
	SubIntentCancel     SubIntent = "cancel"
	SubIntentUnknown    SubIntent = "unknown"
)

// Intent is the classification result for one utterance, produced once
// and never mutated
type Intent struct {
	Tag IntentTag `json:"tag"`
	Sub SubIntent `json:"sub"`
}

// Known reports whether the classifier produced a usable label
func (i Intent) Known() bool {
	return i.Sub != SubIntentUnknown
}

// RequiredSlots returns the slots that must be filled before a candidate
// query for this intent can be synthesized
func (i Intent) RequiredSlots() []SlotName {
	switch i.Sub {
	case SubIntentBook:
		return []SlotName{SlotPatientName, SlotDoctorReference, SlotAppointmentTime, SlotReason}
	case SubIntentReschedule:
		return []SlotName{SlotPatientName, SlotAppointmentTime}
	case SubIntentCancel:
		return []SlotName{SlotPatientName}
	default:
		return nil
	}
}
