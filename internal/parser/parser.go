// Package parser turns raw log lines into model.Record values by applying
// an ordered list of named regex ParsingRules with capture-group field
// maps. Grounded on the teacher's internal/logging (enhanced_log_parser.go,
// log_parsers.go) regex-driven line parsers, generalized from a fixed set
// of hard-coded per-format parsers to the spec's data-driven ParsingRule
// list, and on original_source/backend/src/log_parser.rs for the
// bracketed-timestamp/key=value line shape preserved as a default rule in
// the seed parsing_rules.json.
package parser

import (
	"regexp"
	"strings"

	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

// compiledRule pairs a ParsingRule with its compiled regex. re is nil when
// the pattern failed to compile; the rule is then permanently skipped.
type compiledRule struct {
	rule model.ParsingRule
	re   *regexp.Regexp
}

// Parser applies a prioritised set of ParsingRules to raw log lines.
type Parser struct {
	logger     *logging.Logger
	nonDefault []*compiledRule
	defaults   []*compiledRule
}

// New compiles rules, logging once per invalid pattern and skipping it for
// the remainder of the run.
func New(logger *logging.Logger, rules []model.ParsingRule) *Parser {
	p := &Parser{logger: logger}
	for _, r := range rules {
		cr := &compiledRule{rule: r}
		if re, err := regexp.Compile(r.Pattern); err != nil {
			if logger != nil {
				logger.Warn("skipping parsing rule with invalid pattern",
					"rule", r.Name, "pattern", r.Pattern, "error", err.Error())
			}
		} else {
			cr.re = re
		}
		if r.Default {
			p.defaults = append(p.defaults, cr)
		} else {
			p.nonDefault = append(p.nonDefault, cr)
		}
	}
	return p
}

// ParseLine applies the non-default rules in declared order, falling back
// to the default rules (also in declared order) if none matched. A line
// matching nothing keeps only its raw text.
func (p *Parser) ParseLine(line string) model.Record {
	rec := model.NewRecord(line)
	if p.applyFirstMatch(p.nonDefault, &rec) {
		return rec
	}
	p.applyFirstMatch(p.defaults, &rec)
	return rec
}

// ParseLines splits content into lines and parses each independently,
// preserving input order. A single trailing newline does not produce a
// trailing empty record.
func (p *Parser) ParseLines(content string) []model.Record {
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	records := make([]model.Record, 0, len(lines))
	for _, line := range lines {
		records = append(records, p.ParseLine(line))
	}
	return records
}

// applyFirstMatch tries each compiled rule in order and stops at the first
// that matches, reading every named capture group into rec. It reports
// whether any rule matched.
func (p *Parser) applyFirstMatch(rules []*compiledRule, rec *model.Record) bool {
	for _, cr := range rules {
		if cr.re == nil {
			continue
		}
		m := cr.re.FindStringSubmatch(rec.RawLine)
		if m == nil {
			continue
		}
		p.populate(cr, m, rec)
		return true
	}
	return false
}

func (p *Parser) populate(cr *compiledRule, match []string, rec *model.Record) {
	for i, name := range cr.re.SubexpNames() {
		if i == 0 || name == "" || match[i] == "" {
			continue
		}
		target, mapped := cr.rule.FieldMap[name]
		if !mapped {
			target = name
		}
		if target == "timestamp" {
			if t, ok := parseTimestamp(match[i]); ok {
				rec.SetTimestamp(t)
			}
			continue
		}
		rec.SetField(target, match[i])
	}
}
