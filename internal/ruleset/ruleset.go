// Package ruleset loads, persists, and mutates the rules.json rule
// catalogue. Grounded on original_source/backend/src/rules_engine.rs's
// RulesEngine (load_rules/add_rule/save_rules) and the teacher's cmd/rules.go
// management-command shape, adapted to operate on the real on-disk
// catalogue instead of a static built-in list.
package ruleset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

// RuleSet is a declared-order rule catalogue, safe for concurrent read
// access once loaded. Mutations (AddRule, Reload) take an exclusive lock.
type RuleSet struct {
	mu    sync.RWMutex
	rules []model.Rule
	path  string
}

// New returns an empty, unbound RuleSet (no backing file).
func New() *RuleSet {
	return &RuleSet{}
}

// Load reads rules.json from path, preserving declared order.
func Load(path string) (*RuleSet, error) {
	rules, err := readRulesFile(path)
	if err != nil {
		return nil, err
	}
	return &RuleSet{rules: rules, path: path}, nil
}

func readRulesFile(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.RulesLoadFailure, "read rules file", err)
	}
	var rules []model.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, apperr.New(apperr.RulesLoadFailure, "parse rules JSON", fmt.Errorf("%s: %w", path, err))
	}
	return rules, nil
}

// Rules returns a snapshot copy of the enabled-and-disabled catalogue in
// declared order.
func (rs *RuleSet) Rules() []model.Rule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]model.Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Enabled returns only the rules with Enabled == true, in declared order.
func (rs *RuleSet) Enabled() []model.Rule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []model.Rule
	for _, r := range rs.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// LoadJSON replaces the entire catalogue from a JSON-encoded document,
// matching the "full replace" semantics of POST /api/rules/load. On parse
// failure the existing catalogue is left untouched.
func (rs *RuleSet) LoadJSON(data []byte) error {
	var rules []model.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return apperr.New(apperr.RulesLoadFailure, "parse rules JSON", err)
	}
	rs.mu.Lock()
	rs.rules = rules
	rs.mu.Unlock()
	return nil
}

// Reload re-reads the backing file. On failure the previous in-memory
// catalogue is preserved and the error is returned to the caller
// (RulesLoadFailure is non-fatal at runtime reload, per the error taxonomy).
func (rs *RuleSet) Reload() error {
	if rs.path == "" {
		return apperr.New(apperr.RulesLoadFailure, "reload", fmt.Errorf("ruleset has no backing file"))
	}
	rules, err := readRulesFile(rs.path)
	if err != nil {
		return err
	}
	rs.mu.Lock()
	rs.rules = rules
	rs.mu.Unlock()
	return nil
}

// AddRule appends rule, re-assigning its ID to rule_{N:03} where N is its
// 1-based position, then persists the catalogue if a backing file is set.
func (rs *RuleSet) AddRule(rule model.Rule) (model.Rule, error) {
	rs.mu.Lock()
	rule.ID = fmt.Sprintf("rule_%03d", len(rs.rules)+1)
	rs.rules = append(rs.rules, rule)
	rules := make([]model.Rule, len(rs.rules))
	copy(rules, rs.rules)
	path := rs.path
	rs.mu.Unlock()

	if path != "" {
		if err := writeRulesFileAtomic(path, rules); err != nil {
			return rule, err
		}
	}
	return rule, nil
}

// Save persists the current catalogue to its backing file.
func (rs *RuleSet) Save() error {
	rs.mu.RLock()
	rules := make([]model.Rule, len(rs.rules))
	copy(rules, rs.rules)
	path := rs.path
	rs.mu.RUnlock()

	if path == "" {
		return apperr.New(apperr.RulesLoadFailure, "save", fmt.Errorf("ruleset has no backing file"))
	}
	return writeRulesFileAtomic(path, rules)
}

// writeRulesFileAtomic writes rules to a temp file in the same directory
// as path and renames it over the target, so readers never observe a
// partially written rules.json.
func writeRulesFileAtomic(path string, rules []model.Rule) error {
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return apperr.New(apperr.RulesLoadFailure, "marshal rules", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rules-*.json.tmp")
	if err != nil {
		return apperr.New(apperr.RulesLoadFailure, "create temp rules file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.New(apperr.RulesLoadFailure, "write temp rules file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.New(apperr.RulesLoadFailure, "close temp rules file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperr.New(apperr.RulesLoadFailure, "rename rules file into place", err)
	}
	return nil
}
