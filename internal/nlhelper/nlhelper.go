// Package nlhelper bridges the detection pipeline to an external natural
// language helper script, the same way original_source/backend/src/ai_module.rs
// shells out to a Python process via std::process::Command. Adapted to
// os/exec in the style of the teacher's cmd/health.go and
// platform/linux/collector.go (exec.CommandContext, captured stdout/stderr,
// never a fatal path): a failing or missing helper degrades the caller to
// an error, never a panic.
package nlhelper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

const (
	envExplainScript  = "AI_EXPL_SCRIPT_PATH"
	envGenerateScript = "AI_GEN_SCRIPT_PATH"
	envInterpreter    = "PYTHON_INTERPRETER_PATH"

	defaultExplainScript  = "scripts/explain_alert.py"
	defaultGenerateScript = "scripts/generate_rule.py"
	defaultInterpreter    = "python3"
)

// Helper shells out to the configured interpreter/script pair.
type Helper struct {
	ExplainScriptPath  string
	GenerateScriptPath string
	InterpreterPath    string
}

// NewFromEnv builds a Helper from AI_EXPL_SCRIPT_PATH / AI_GEN_SCRIPT_PATH /
// PYTHON_INTERPRETER_PATH, falling back to the same defaults as the
// original Rust implementation when unset.
func NewFromEnv() Helper {
	return Helper{
		ExplainScriptPath:  envOr(envExplainScript, defaultExplainScript),
		GenerateScriptPath: envOr(envGenerateScript, defaultGenerateScript),
		InterpreterPath:    envOr(envInterpreter, defaultInterpreter),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ExplainAlert runs the explain script with the alert JSON-encoded on
// stdin, returning its stdout as a human-readable explanation. ok is false
// when the helper could not be run or exited non-zero; the caller degrades
// to a 503 rather than treating this as fatal.
func (h Helper) ExplainAlert(ctx context.Context, alert model.Alert) (string, bool) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return "", false
	}

	cmd := exec.CommandContext(ctx, h.InterpreterPath, h.ExplainScriptPath)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(stderr.String()), false
	}
	return strings.TrimSpace(stdout.String()), true
}

// GenerateRule runs the generate script with a free-form description on
// stdin and parses its stdout as a draft model.Rule. The draft is never
// auto-added to the live ruleset; the caller must still submit it through
// the rules-add path.
func (h Helper) GenerateRule(ctx context.Context, description string) (*model.Rule, error) {
	cmd := exec.CommandContext(ctx, h.InterpreterPath, h.GenerateScriptPath)
	cmd.Stdin = strings.NewReader(description)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, apperr.New(apperr.TransportFailure, "run rule generation helper",
			fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	var rule model.Rule
	if err := json.Unmarshal(stdout.Bytes(), &rule); err != nil {
		return nil, apperr.New(apperr.TransportFailure, "parse generated rule", err)
	}
	return &rule, nil
}
