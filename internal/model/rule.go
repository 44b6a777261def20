package model

import (
	"encoding/json"
	"strings"
)

// RuleKind identifies a rule's detection behavior. The three built-in,
// stateful kinds are fixed strings; any other string read from JSON is
// treated as a custom label, mirroring the Rust source's
// `AlertType::Custom(String)` enum variant recovered from
// original_source/backend/src/models.rs.
type RuleKind string

const (
	BruteForce          RuleKind = "BruteForce"
	HighFrequencyReq    RuleKind = "HighFrequencyRequest"
	SuspiciousIP        RuleKind = "SuspiciousIp"
	customPrefix                 = "Custom("
	customSuffix                 = ")"
)

// Custom builds a RuleKind carrying a free-form label.
func Custom(label string) RuleKind {
	return RuleKind(customPrefix + label + customSuffix)
}

// IsCustom reports whether k is a Custom(label) kind, returning the label.
func (k RuleKind) IsCustom() (label string, ok bool) {
	s := string(k)
	if strings.HasPrefix(s, customPrefix) && strings.HasSuffix(s, customSuffix) {
		return s[len(customPrefix) : len(s)-len(customSuffix)], true
	}
	switch k {
	case BruteForce, HighFrequencyReq, SuspiciousIP:
		return "", false
	default:
		// Any bare string that isn't one of the three built-ins is treated
		// as a custom label without the Custom(...) wrapper, so rules.json
		// authored by hand can just write "kind": "my_rule".
		return s, true
	}
}

// MarshalJSON writes the kind as a plain string, matching the Rust source's
// serde representation for the enum (e.g. "BruteForce" or "my_label").
func (k RuleKind) MarshalJSON() ([]byte, error) {
	s := string(k)
	if label, ok := k.IsCustom(); ok && strings.HasPrefix(s, customPrefix) {
		return json.Marshal(label)
	}
	return json.Marshal(s)
}

// UnmarshalJSON reads a plain string into a RuleKind.
func (k *RuleKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch RuleKind(s) {
	case BruteForce, HighFrequencyReq, SuspiciousIP:
		*k = RuleKind(s)
	default:
		*k = Custom(s)
	}
	return nil
}

// Rule is a declarative detector specification loaded from rules.json.
type Rule struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Pattern           string   `json:"pattern,omitempty"`
	Description       string   `json:"description"`
	Enabled           bool     `json:"enabled"`
	Kind              RuleKind `json:"kind"`
	AlertKind         RuleKind `json:"alert_kind"`
	TimeWindowSeconds *uint    `json:"time_window_seconds,omitempty"`
	Threshold         *uint    `json:"threshold,omitempty"`
}

// ParsingRule drives the line-to-Record parser: an ordered, named regex with
// a capture-group-name to Record-field-name map.
type ParsingRule struct {
	Name     string            `json:"name"`
	Pattern  string            `json:"pattern"`
	FieldMap map[string]string `json:"field_map"`
	Default  bool              `json:"default"`
}
