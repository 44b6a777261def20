package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert is an append-only, value-typed output event raised when a rule's
// trigger condition is met.
type Alert struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	AlertKind   RuleKind  `json:"alert_kind"`
	Description string    `json:"description"`
	Sample      *Record   `json:"sample,omitempty"`
}

// NewAlert stamps a fresh UUID and the current time onto an alert. Used for
// stateless (custom regex) rules, which have no record timestamp to anchor
// to.
func NewAlert(kind RuleKind, description string, sample *Record) Alert {
	return NewAlertAt(kind, description, sample, time.Now().UTC())
}

// NewAlertAt stamps a fresh UUID onto an alert with an explicit timestamp,
// used by the stateful rules so the alert reflects the record's own time
// (or the substituted wall-clock time when the record has none).
func NewAlertAt(kind RuleKind, description string, sample *Record, ts time.Time) Alert {
	return Alert{
		ID:          uuid.New(),
		Timestamp:   ts.UTC(),
		AlertKind:   kind,
		Description: description,
		Sample:      sample,
	}
}
