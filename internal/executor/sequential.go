package executor

import (
	"context"
	"time"

	"github.com/sentrywatch/sentrywatch/internal/detector"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

// Sequential runs every record through a single Detector in order. It is
// the reference strategy the other two are checked against: given no
// stateful keys straddling a partition boundary, Parallel must produce the
// same alert multiset as Sequential over the same input.
type Sequential struct {
	Logger *logging.Logger
}

// Run implements Executor.
func (s Sequential) Run(ctx context.Context, records []model.Record, rules *ruleset.RuleSet) (model.Metrics, error) {
	t := newTimer()
	d := detector.New(rules.Enabled(), s.Logger)

	var alerts []model.Alert
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return model.Metrics{}, err
		}
		fired, err := d.Evaluate(rec)
		if err != nil {
			return model.Metrics{}, err
		}
		alerts = append(alerts, fired...)

		if i > 0 && i%sweepEvery == 0 {
			d.Sweep(time.Now())
		}
	}

	metrics := model.Metrics{
		TotalRecords: uint64(len(records)),
		ExecutionMS:  t.elapsedMS(),
		Alerts:       alerts,
		Mode:         "sequential",
	}
	metrics.Finalize()
	return metrics, nil
}
