package executor

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentrywatch/sentrywatch/internal/detector"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

// Parallel partitions records into contiguous chunks, one per worker
// goroutine, each owning a private Detector so no counter is ever shared
// across partitions. Alerts are concatenated in partition order, not
// completion order, so results are reproducible regardless of goroutine
// scheduling.
type Parallel struct {
	Logger  *logging.Logger
	Workers int // 0 means runtime.GOMAXPROCS(0)
}

// Run implements Executor.
func (p Parallel) Run(ctx context.Context, records []model.Record, rules *ruleset.RuleSet) (model.Metrics, error) {
	t := newTimer()

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(records) && len(records) > 0 {
		workers = len(records)
	}
	if workers < 1 {
		workers = 1
	}

	partitions := partition(records, workers)
	alertsByPartition := make([][]model.Alert, len(partitions))
	enabled := rules.Enabled()

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			d := detector.New(enabled, p.Logger)
			var alerts []model.Alert
			for j, rec := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				fired, err := d.Evaluate(rec)
				if err != nil {
					return err
				}
				alerts = append(alerts, fired...)

				if j > 0 && j%sweepEvery == 0 {
					d.Sweep(time.Now())
				}
			}
			alertsByPartition[i] = alerts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Metrics{}, err
	}

	var alerts []model.Alert
	for _, part := range alertsByPartition {
		alerts = append(alerts, part...)
	}

	metrics := model.Metrics{
		TotalRecords: uint64(len(records)),
		ExecutionMS:  t.elapsedMS(),
		Alerts:       alerts,
		Mode:         "parallel",
	}
	metrics.Finalize()
	return metrics, nil
}

// partition splits records into n contiguous, near-equal chunks in order.
func partition(records []model.Record, n int) [][]model.Record {
	if n <= 1 || len(records) == 0 {
		if len(records) == 0 {
			return nil
		}
		return [][]model.Record{records}
	}

	size := (len(records) + n - 1) / n
	var out [][]model.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}
