// Package executor implements the three interchangeable analysis
// strategies (sequential, parallel, distributed) behind one interface.
// Grounded on original_source/backend/src/{sequential_analysis,
// parallel_analysis}.rs and the Timer shape in utils.rs.
package executor

import (
	"context"
	"time"

	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

// Executor runs a batch of records against a ruleset and reports the
// resulting alerts and timing metrics.
type Executor interface {
	Run(ctx context.Context, records []model.Record, rules *ruleset.RuleSet) (model.Metrics, error)
}

// sweepEvery is how many records a driver processes before giving its
// Detector a chance to evict stale state-table entries (spec.md §4.3's
// "Absence of GC" background-sweep guidance). Best-effort only: it does
// not change which alerts fire, only how much idle state a long-running
// detector holds onto between them.
const sweepEvery = 10000

// timer is a monotonic stopwatch, adapted from the teacher/original_source's
// Timer (utils.rs): start on construction, elapsedMS on demand.
type timer struct {
	start time.Time
}

func newTimer() timer { return timer{start: time.Now()} }

func (t timer) elapsedMS() float64 {
	return float64(time.Since(t.start)) / float64(time.Millisecond)
}
