package nlhelper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrywatch/sentrywatch/internal/model"
)

// echoScript writes a tiny shell script to dir that prints its stdin back
// to stdout, standing in for a real Python helper in tests.
func echoScript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "echo.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\ncat\n"), 0o755))
	return path
}

func TestExplainAlertReturnsHelperStdout(t *testing.T) {
	dir := t.TempDir()
	h := Helper{
		InterpreterPath:   "/bin/sh",
		ExplainScriptPath: echoScript(t, dir),
	}

	alert := NewAlertForTest()
	text, ok := h.ExplainAlert(context.Background(), alert)
	require.True(t, ok)
	// Custom kinds marshal as their bare label, so the echoed JSON carries
	// "test_kind" rather than "Custom(test_kind)".
	assert.Contains(t, text, `"alert_kind":"test_kind"`)
}

func TestExplainAlertFailsGracefullyOnMissingScript(t *testing.T) {
	h := Helper{
		InterpreterPath:   "/bin/sh",
		ExplainScriptPath: "/nonexistent/path/does-not-exist.sh",
	}
	_, ok := h.ExplainAlert(context.Background(), NewAlertForTest())
	assert.False(t, ok)
}

func TestGenerateRuleParsesHelperOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen.sh")
	script := `#!/bin/sh
cat <<'EOF'
{"name":"generated","pattern":"foo","kind":"generated","alert_kind":"generated","enabled":true}
EOF
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	h := Helper{InterpreterPath: "/bin/sh", GenerateScriptPath: path}
	rule, err := h.GenerateRule(context.Background(), "detect foo")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "generated", rule.Name)
}

func NewAlertForTest() model.Alert {
	return model.NewAlert(model.Custom("test_kind"), "a test alert", nil)
}
