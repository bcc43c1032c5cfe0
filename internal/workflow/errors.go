package workflow

import (
	"fmt"
	"strings"
)

// ValidationError means a required field is missing or a value is out of
// domain. The operation was never attempted.
type ValidationError struct {
	RecordID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on record %s (%s): %s", e.RecordID, e.Field, e.Reason)
}

// TransitionError means the requested action is not legal from the record's
// current status. It carries the legal action set so callers can re-render
// the options instead of guessing.
type TransitionError struct {
	RecordID string
	Action   Action
	From     Status
	Allowed  []Action
}

func (e *TransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, a := range e.Allowed {
		allowed = append(allowed, string(a))
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("record %s: action %s is not legal from status %s (no actions available)",
			e.RecordID, e.Action, e.From)
	}
	return fmt.Sprintf("record %s: action %s is not legal from status %s (allowed: %s)",
		e.RecordID, e.Action, e.From, strings.Join(allowed, ", "))
}

// ConflictError means another actor changed the record since it was loaded.
// The write was rejected; the caller must reload and retry explicitly.
type ConflictError struct {
	RecordID        string
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s was modified by another user (expected version %d)",
		e.RecordID, e.ExpectedVersion)
}
