// Package model holds the data shapes shared by the parser, the detector,
// the executors, and the wire protocol: Record, Rule, ParsingRule, Alert and
// Metrics.
package model

import "time"

// Record is a parsed log entry. Fields that were not captured from the raw
// line stay nil rather than being populated with an empty string, matching
// the "absent rather than empty" invariant of the detection pipeline.
type Record struct {
	RawLine   string            `json:"raw_line"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	IPAddress *string           `json:"ip_address,omitempty"`
	UserID    *string           `json:"user_id,omitempty"`
	EventType *string           `json:"event_type,omitempty"`
	Level     *string           `json:"level,omitempty"`
	Message   *string           `json:"message,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// NewRecord returns a Record populated with only the raw line, the shape
// produced for lines that match no parsing rule.
func NewRecord(rawLine string) Record {
	return Record{RawLine: rawLine}
}

func strPtr(s string) *string { return &s }

// SetField assigns a recognised field name to value, or falls through to
// Extras for any other capture-group target.
func (r *Record) SetField(name, value string) {
	switch name {
	case "ip_address":
		r.IPAddress = strPtr(value)
	case "user_id":
		r.UserID = strPtr(value)
	case "event_type":
		r.EventType = strPtr(value)
	case "level":
		r.Level = strPtr(value)
	case "message":
		r.Message = strPtr(value)
	case "timestamp":
		// Handled by the caller, which parses the raw capture through the
		// timestamp format list before calling SetTimestamp.
	default:
		if r.Extras == nil {
			r.Extras = make(map[string]string)
		}
		r.Extras[name] = value
	}
}

// SetTimestamp normalises t to UTC and stores it.
func (r *Record) SetTimestamp(t time.Time) {
	utc := t.UTC()
	r.Timestamp = &utc
}
