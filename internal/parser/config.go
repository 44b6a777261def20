package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

// LoadParsingRules reads an ordered JSON array of ParsingRule from path,
// adapted from original_source/backend/src/main.rs's
// parser_config::load_parsing_rules call site.
func LoadParsingRules(path string) ([]model.ParsingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.ConfigFailure, "read parsing rules file", err)
	}
	var rules []model.ParsingRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, apperr.New(apperr.RulesLoadFailure, "parse parsing rules JSON", fmt.Errorf("%s: %w", path, err))
	}
	return rules, nil
}
