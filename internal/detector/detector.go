// Package detector implements the stateful threat detector: three
// sliding-window state tables (brute-force, high-frequency-request,
// suspicious-IP) plus stateless custom regex rules, evaluated one record at
// a time. Grounded on the teacher's detector/detector.go (Detector holding
// a rule list and an Evaluate-style entry point) and on the semantics of
// original_source/backend/src/threat_detection.rs's ThreatDetector, whose
// HashMap::entry().or_insert(...) read-or-seed idiom is mirrored here as a
// map lookup followed by an explicit store.
package detector

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

// bruteForceKey identifies a brute-force counter bucket.
type bruteForceKey struct {
	ip   string
	user string
}

type counterCell struct {
	count    uint
	lastSeen time.Time
}

type eventSetCell struct {
	counts   map[string]uint
	lastSeen time.Time
}

// Detector is single-threaded per instance: the Parallel executor gives
// each partition its own private Detector rather than sharing one behind a
// mutex, so counters never span partitions.
type Detector struct {
	rules  []model.Rule
	logger *logging.Logger

	bruteForce   map[bruteForceKey]counterCell
	highFreq     map[string]counterCell
	suspiciousIP map[string]eventSetCell

	customRegex    map[string]*regexp.Regexp
	customDisabled map[string]bool
}

// New builds a Detector over the given enabled rules. Callers normally pass
// ruleset.RuleSet.Enabled(); disabled rules are never evaluated.
func New(rules []model.Rule, logger *logging.Logger) *Detector {
	return &Detector{
		rules:          rules,
		logger:         logger,
		bruteForce:     make(map[bruteForceKey]counterCell),
		highFreq:       make(map[string]counterCell),
		suspiciousIP:   make(map[string]eventSetCell),
		customRegex:    make(map[string]*regexp.Regexp),
		customDisabled: make(map[string]bool),
	}
}

// Evaluate runs every enabled rule against record in declared order. State
// rules update their counters whether or not they fire. When more than one
// rule would fire on the same record, only the first is emitted — the
// state-based rules already evict their key on fire, so a later rule of the
// same kind observes empty state on the next record, not this one.
func (d *Detector) Evaluate(record model.Record) ([]model.Alert, error) {
	var fired []model.Alert
	for _, rule := range d.rules {
		if !rule.Enabled {
			continue
		}
		var alert *model.Alert
		switch rule.Kind {
		case model.BruteForce:
			alert = d.checkBruteForce(record, rule)
		case model.HighFrequencyReq:
			alert = d.checkHighFrequency(record, rule)
		case model.SuspiciousIP:
			alert = d.checkSuspiciousIP(record, rule)
		default:
			alert = d.checkCustom(record, rule)
		}
		if alert != nil {
			fired = append(fired, *alert)
		}
	}
	if len(fired) > 1 {
		fired = fired[:1]
	}
	return fired, nil
}

// effectiveTime substitutes wall-clock now when the record carries no
// timestamp, per spec's documented (bounded) source of non-determinism.
func effectiveTime(record model.Record) time.Time {
	if record.Timestamp != nil {
		return *record.Timestamp
	}
	return time.Now().UTC()
}

func (d *Detector) checkBruteForce(record model.Record, rule model.Rule) *model.Alert {
	if record.EventType == nil || *record.EventType != "login_failed" {
		return nil
	}
	if record.IPAddress == nil || record.UserID == nil {
		return nil
	}
	if rule.TimeWindowSeconds == nil || rule.Threshold == nil {
		return nil
	}

	key := bruteForceKey{ip: *record.IPAddress, user: *record.UserID}
	now := effectiveTime(record)
	window := time.Duration(*rule.TimeWindowSeconds) * time.Second

	cell, exists := d.bruteForce[key]
	if exists && now.Sub(cell.lastSeen) < window {
		cell.count++
	} else {
		cell.count = 1
	}
	cell.lastSeen = now
	d.bruteForce[key] = cell

	if cell.count >= *rule.Threshold {
		delete(d.bruteForce, key)
		alert := model.NewAlertAt(model.BruteForce,
			fmt.Sprintf("Brute-force attempt detected from IP %s for user %s", key.ip, key.user),
			&record, now)
		return &alert
	}
	return nil
}

func (d *Detector) checkHighFrequency(record model.Record, rule model.Rule) *model.Alert {
	if record.IPAddress == nil {
		return nil
	}
	if rule.TimeWindowSeconds == nil || rule.Threshold == nil {
		return nil
	}

	key := *record.IPAddress
	now := effectiveTime(record)
	window := time.Duration(*rule.TimeWindowSeconds) * time.Second

	cell, exists := d.highFreq[key]
	if exists && now.Sub(cell.lastSeen) < window {
		cell.count++
	} else {
		cell.count = 1
	}
	cell.lastSeen = now
	d.highFreq[key] = cell

	if cell.count >= *rule.Threshold {
		delete(d.highFreq, key)
		alert := model.NewAlertAt(model.HighFrequencyReq,
			fmt.Sprintf("High-frequency requests detected from IP %s", key),
			&record, now)
		return &alert
	}
	return nil
}

func (d *Detector) checkSuspiciousIP(record model.Record, rule model.Rule) *model.Alert {
	if record.IPAddress == nil {
		return nil
	}
	if rule.TimeWindowSeconds == nil || rule.Threshold == nil {
		return nil
	}

	key := *record.IPAddress
	now := effectiveTime(record)
	window := time.Duration(*rule.TimeWindowSeconds) * time.Second

	cell, exists := d.suspiciousIP[key]
	if exists && now.Sub(cell.lastSeen) < window {
		if record.EventType != nil {
			if cell.counts == nil {
				cell.counts = make(map[string]uint)
			}
			cell.counts[*record.EventType]++
		}
	} else {
		cell.counts = make(map[string]uint)
		if record.EventType != nil {
			cell.counts[*record.EventType] = 1
		}
	}
	cell.lastSeen = now
	d.suspiciousIP[key] = cell

	if uint(len(cell.counts)) >= *rule.Threshold {
		delete(d.suspiciousIP, key)
		alert := model.NewAlertAt(model.SuspiciousIP,
			fmt.Sprintf("Suspicious IP behavior detected from IP %s: multiple event types", key),
			&record, now)
		return &alert
	}
	return nil
}

func (d *Detector) checkCustom(record model.Record, rule model.Rule) *model.Alert {
	if d.customDisabled[rule.ID] {
		return nil
	}
	re, ok := d.customRegex[rule.ID]
	if !ok {
		compiled, err := regexp.Compile(rule.Pattern)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("disabling custom rule with invalid pattern",
					"rule", rule.Name, "pattern", rule.Pattern, "error", err.Error())
			}
			d.customDisabled[rule.ID] = true
			return nil
		}
		re = compiled
		d.customRegex[rule.ID] = re
	}

	if !re.MatchString(record.RawLine) {
		return nil
	}
	alert := model.NewAlert(rule.AlertKind,
		fmt.Sprintf("Rule '%s' triggered: %s", rule.Name, rule.Description), &record)
	return &alert
}

// Sweep evicts state-table entries whose last-seen time predates now minus
// the largest time_window_seconds among the detector's enabled rules. It is
// an optional scaling aid (spec's "Absence of GC" guidance), not required
// for correctness: nothing in Evaluate depends on eviction happening here.
func (d *Detector) Sweep(now time.Time) {
	var maxWindow time.Duration
	for _, rule := range d.rules {
		if !rule.Enabled || rule.TimeWindowSeconds == nil {
			continue
		}
		w := time.Duration(*rule.TimeWindowSeconds) * time.Second
		if w > maxWindow {
			maxWindow = w
		}
	}
	if maxWindow == 0 {
		return
	}
	cutoff := now.Add(-maxWindow)

	for k, cell := range d.bruteForce {
		if cell.lastSeen.Before(cutoff) {
			delete(d.bruteForce, k)
		}
	}
	for k, cell := range d.highFreq {
		if cell.lastSeen.Before(cutoff) {
			delete(d.highFreq, k)
		}
	}
	for k, cell := range d.suspiciousIP {
		if cell.lastSeen.Before(cutoff) {
			delete(d.suspiciousIP, k)
		}
	}
}
