package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

func mustRuleSet(t *testing.T, rules []model.Rule) *ruleset.RuleSet {
	t.Helper()
	data, err := json.Marshal(rules)
	require.NoError(t, err)
	rs := ruleset.New()
	require.NoError(t, rs.LoadJSON(data))
	return rs
}

func uintPtr(v uint) *uint { return &v }
func strPtr(s string) *string { return &s }

func highFreqRule() model.Rule {
	return model.Rule{
		ID: "rule_001", Name: "high freq", Enabled: true,
		Kind: model.HighFrequencyReq, AlertKind: model.HighFrequencyReq,
		TimeWindowSeconds: uintPtr(3600), Threshold: uintPtr(3),
	}
}

func buildRecords(n int, ip string) []model.Record {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]model.Record, n)
	for i := 0; i < n; i++ {
		r := model.NewRecord(fmt.Sprintf("request %d", i))
		r.IPAddress = strPtr(ip)
		r.SetTimestamp(base.Add(time.Duration(i) * time.Second))
		recs[i] = r
	}
	return recs
}

func TestSequentialProducesOneAlertPerThreshold(t *testing.T) {
	rs := mustRuleSet(t, []model.Rule{highFreqRule()})
	records := buildRecords(9, "10.0.0.1")

	metrics, err := Sequential{}.Run(context.Background(), records, rs)
	require.NoError(t, err)
	assert.EqualValues(t, 9, metrics.TotalRecords)
	assert.Len(t, metrics.Alerts, 3, "every 3rd record should fire and evict")
	assert.Equal(t, "sequential", metrics.Mode)
}

func TestParallelMatchesSequentialWhenKeysDoNotStraddlePartitions(t *testing.T) {
	rs := mustRuleSet(t, []model.Rule{highFreqRule()})

	// Five independent IPs, each with its own 3-record burst. With five
	// workers the 15 records split into chunks of 3, so each partition holds
	// exactly one IP's burst and no stateful key straddles a boundary.
	var records []model.Record
	for i := 0; i < 5; i++ {
		records = append(records, buildRecords(3, fmt.Sprintf("10.0.0.%d", i))...)
	}

	seqMetrics, err := Sequential{}.Run(context.Background(), records, rs)
	require.NoError(t, err)

	parMetrics, err := Parallel{Workers: 5}.Run(context.Background(), records, rs)
	require.NoError(t, err)

	assert.Equal(t, len(seqMetrics.Alerts), len(parMetrics.Alerts))
	assert.ElementsMatch(t, kindsOf(seqMetrics.Alerts), kindsOf(parMetrics.Alerts))
}

func kindsOf(alerts []model.Alert) []model.RuleKind {
	out := make([]model.RuleKind, len(alerts))
	for i, a := range alerts {
		out[i] = a.AlertKind
	}
	return out
}

func TestPartitionSplitsContiguously(t *testing.T) {
	records := buildRecords(10, "10.0.0.9")
	parts := partition(records, 3)
	require.Len(t, parts, 3, "10 records split across 3 workers yields 3 contiguous partitions")
	assert.Len(t, parts[0], 4)
	assert.Len(t, parts[1], 4)
	assert.Len(t, parts[2], 2)

	var reassembled []model.Record
	for _, p := range parts {
		reassembled = append(reassembled, p...)
	}
	assert.Equal(t, records, reassembled)
}

func TestDistributedMasterWorkerRoundTrip(t *testing.T) {
	rs := mustRuleSet(t, []model.Rule{highFreqRule()})
	records := buildRecords(6, "10.0.0.5")

	master := DistributedMaster{Addr: "127.0.0.1:18081", Workers: 1}

	type runResult struct {
		metrics model.Metrics
		err     error
	}
	done := make(chan runResult, 1)
	go func() {
		m, err := master.Run(context.Background(), records, rs)
		done <- runResult{m, err}
	}()

	// Give the listener a moment to bind before the worker dials in.
	time.Sleep(50 * time.Millisecond)

	worker := DistributedWorker{MasterAddr: "127.0.0.1:18081"}
	require.NoError(t, worker.Run(context.Background()))

	result := <-done
	require.NoError(t, result.err)
	assert.EqualValues(t, 6, result.metrics.TotalRecords)
	assert.Equal(t, "distributed", result.metrics.Mode)
}
