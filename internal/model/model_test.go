package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleKindBuiltinRoundTrips(t *testing.T) {
	for _, kind := range []RuleKind{BruteForce, HighFrequencyReq, SuspiciousIP} {
		data, err := json.Marshal(kind)
		require.NoError(t, err)

		var got RuleKind
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, kind, got)
	}
}

func TestCustomRuleKindRoundTripsAsPlainLabel(t *testing.T) {
	kind := Custom("shell_upload")
	data, err := json.Marshal(kind)
	require.NoError(t, err)
	assert.Equal(t, `"shell_upload"`, string(data))

	var got RuleKind
	require.NoError(t, json.Unmarshal(data, &got))
	label, ok := got.IsCustom()
	require.True(t, ok)
	assert.Equal(t, "shell_upload", label)
}

func TestRecordSetFieldRoutesKnownNames(t *testing.T) {
	r := NewRecord("raw")
	r.SetField("ip_address", "10.0.0.1")
	r.SetField("user_id", "alice")
	r.SetField("custom_tag", "x")

	require.NotNil(t, r.IPAddress)
	assert.Equal(t, "10.0.0.1", *r.IPAddress)
	require.NotNil(t, r.UserID)
	assert.Equal(t, "alice", *r.UserID)
	assert.Equal(t, "x", r.Extras["custom_tag"])
}

func TestMetricsFinalizeGuardsZeroExecutionTime(t *testing.T) {
	m := Metrics{TotalRecords: 100, ExecutionMS: 0}
	m.Finalize()
	assert.Zero(t, m.RecordsPerSecond)

	m2 := Metrics{TotalRecords: 1000, ExecutionMS: 500}
	m2.Finalize()
	assert.InDelta(t, 2000.0, m2.RecordsPerSecond, 0.001)
}
