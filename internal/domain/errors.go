package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRepairExhausted indicates the bounded repair counter was exceeded.
// The only fatal outcome for a booking request.
var ErrRepairExhausted = errors.New("repair attempts exhausted")

// IncompleteSlotsError is returned by the synthesizer when required
// slots for the classified intent are absent
type IncompleteSlotsError struct {
	Missing []SlotName
}

func (e *IncompleteSlotsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return fmt.Sprintf("missing required slots: %s", strings.Join(names, ", "))
}

// EntityUnresolvedError reports a reference that matched zero rows, or
// more than one when Ambiguous is set
type EntityUnresolvedError struct {
	Reference  string
	Ambiguous  bool
	Candidates []Doctor
}

func (e *EntityUnresolvedError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("reference %q is ambiguous (%d candidates)", e.Reference, len(e.Candidates))
	}
	return fmt.Sprintf("no match for reference %q", e.Reference)
}
