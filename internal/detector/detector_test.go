package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrywatch/sentrywatch/internal/model"
)

func uintPtr(v uint) *uint { return &v }
func strPtr(s string) *string { return &s }

func rec(ip, user, eventType string, t time.Time) model.Record {
	r := model.NewRecord("line")
	r.IPAddress = strPtr(ip)
	if user != "" {
		r.UserID = strPtr(user)
	}
	if eventType != "" {
		r.EventType = strPtr(eventType)
	}
	r.SetTimestamp(t)
	return r
}

func bruteForceRule() model.Rule {
	return model.Rule{
		ID: "rule_001", Name: "brute force", Enabled: true,
		Kind: model.BruteForce, AlertKind: model.BruteForce,
		TimeWindowSeconds: uintPtr(60), Threshold: uintPtr(3),
	}
}

func TestBruteForceFiresAtThreshold(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		alerts, err := d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		assert.Empty(t, alerts, "should not fire before threshold")
	}

	alerts, err := d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base.Add(2*time.Second)))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.BruteForce, alerts[0].AlertKind)
}

func TestBruteForceEvictsOnFire(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, _ = d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base.Add(time.Duration(i)*time.Second)))
	}
	assert.Empty(t, d.bruteForce, "key should be evicted after firing")

	alerts, err := d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base.Add(10*time.Second)))
	require.NoError(t, err)
	assert.Empty(t, alerts, "counter restarts at 1 after eviction")
}

func TestBruteForceResetsAfterWindowExpiry(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _ = d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base))
	_, _ = d.Evaluate(rec("10.0.0.1", "alice", "login_failed", base.Add(500*time.Second)))

	cell := d.bruteForce[bruteForceKey{ip: "10.0.0.1", user: "alice"}]
	assert.EqualValues(t, 1, cell.count, "window expiry should reset the counter to 1")
}

func TestBruteForceIgnoresNonLoginFailedEvents(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		alerts, err := d.Evaluate(rec("10.0.0.1", "alice", "login_success", base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		assert.Empty(t, alerts)
	}
	assert.Empty(t, d.bruteForce)
}

func TestHighFrequencyFiresAtThreshold(t *testing.T) {
	rule := model.Rule{
		ID: "rule_002", Name: "high freq", Enabled: true,
		Kind: model.HighFrequencyReq, AlertKind: model.HighFrequencyReq,
		TimeWindowSeconds: uintPtr(10), Threshold: uintPtr(2),
	}
	d := New([]model.Rule{rule}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	alerts, err := d.Evaluate(rec("10.0.0.2", "", "request", base))
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = d.Evaluate(rec("10.0.0.2", "", "request", base.Add(time.Second)))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.HighFrequencyReq, alerts[0].AlertKind)
}

func TestSuspiciousIPCountsDistinctEventTypes(t *testing.T) {
	rule := model.Rule{
		ID: "rule_003", Name: "suspicious ip", Enabled: true,
		Kind: model.SuspiciousIP, AlertKind: model.SuspiciousIP,
		TimeWindowSeconds: uintPtr(60), Threshold: uintPtr(3),
	}
	d := New([]model.Rule{rule}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	types := []string{"login_failed", "login_failed", "port_scan", "privilege_escalation"}
	var lastAlerts []model.Alert
	for i, et := range types {
		var err error
		lastAlerts, err = d.Evaluate(rec("10.0.0.3", "", et, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	require.Len(t, lastAlerts, 1)
	assert.Equal(t, model.SuspiciousIP, lastAlerts[0].AlertKind)
}

func TestCustomRuleMatchesRawLine(t *testing.T) {
	rule := model.Rule{
		ID: "rule_004", Name: "shell upload", Enabled: true,
		Kind: model.Custom("shell_upload"), AlertKind: model.Custom("shell_upload"),
		Pattern: `\.php$`, Description: "uploaded PHP file",
	}
	d := New([]model.Rule{rule}, nil)

	r := model.NewRecord("GET /uploads/shell.php")
	alerts, err := d.Evaluate(r)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Description, "shell upload")

	r2 := model.NewRecord("GET /uploads/image.png")
	alerts, err = d.Evaluate(r2)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCustomRuleWithInvalidPatternIsPermanentlyDisabled(t *testing.T) {
	rule := model.Rule{
		ID: "rule_005", Name: "broken", Enabled: true,
		Kind: model.Custom("broken"), AlertKind: model.Custom("broken"),
		Pattern: "(unclosed",
	}
	d := New([]model.Rule{rule}, nil)

	alerts, err := d.Evaluate(model.NewRecord("anything"))
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.True(t, d.customDisabled["rule_005"])
}

func TestFirstAlertWinsAcrossRules(t *testing.T) {
	custom := model.Rule{
		ID: "rule_006", Name: "always matches", Enabled: true,
		Kind: model.Custom("always"), AlertKind: model.Custom("always"),
		Pattern: `.`,
	}
	hf := model.Rule{
		ID: "rule_007", Name: "high freq", Enabled: true,
		Kind: model.HighFrequencyReq, AlertKind: model.HighFrequencyReq,
		TimeWindowSeconds: uintPtr(60), Threshold: uintPtr(1),
	}
	d := New([]model.Rule{custom, hf}, nil)

	r := rec("10.0.0.4", "", "request", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alerts, err := d.Evaluate(r)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.Custom("always"), alerts[0].AlertKind)

	// The second rule's state must still have been updated (and evicted on
	// fire) even though its alert was suppressed.
	assert.Empty(t, d.highFreq)
}

func TestMissingTimestampSubstitutesWallClock(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	r := model.NewRecord("line")
	r.IPAddress = strPtr("10.0.0.5")
	r.UserID = strPtr("bob")
	r.EventType = strPtr("login_failed")

	before := time.Now().UTC()
	_, err := d.Evaluate(r)
	require.NoError(t, err)
	after := time.Now().UTC()

	cell := d.bruteForce[bruteForceKey{ip: "10.0.0.5", user: "bob"}]
	assert.True(t, !cell.lastSeen.Before(before) && !cell.lastSeen.After(after))
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	d := New([]model.Rule{bruteForceRule()}, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = d.Evaluate(rec("10.0.0.6", "carol", "login_failed", base))

	d.Sweep(base.Add(30 * time.Second))
	assert.NotEmpty(t, d.bruteForce, "within window, should survive sweep")

	d.Sweep(base.Add(2 * time.Minute))
	assert.Empty(t, d.bruteForce, "past window, should be swept")
}
