package executor

import (
	"context"
	"fmt"
	"net"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
	"github.com/sentrywatch/sentrywatch/internal/wire"
)

// DistributedMaster binds a listener and waits for Workers connections
// rather than dialing out to them, per the REDESIGN FLAGS direction pin:
// the original Rust worker tried to bind its own listener too, which made
// the pair undialable in either direction. Here the master is the only
// listener; every worker connects outward to it.
type DistributedMaster struct {
	Addr    string // defaults to 127.0.0.1:8081
	Workers int
	Logger  *logging.Logger
}

// Run implements Executor. It blocks until Workers connections have each
// completed the Rules -> LogChunk -> Shutdown handshake.
func (m DistributedMaster) Run(ctx context.Context, records []model.Record, rules *ruleset.RuleSet) (model.Metrics, error) {
	addr := m.Addr
	if addr == "" {
		addr = "127.0.0.1:8081"
	}
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return model.Metrics{}, apperr.New(apperr.TransportFailure, "listen", err)
	}
	defer ln.Close()

	t := newTimer()
	enabled := rules.Enabled()
	partitions := partition(records, workers)
	// partition() may return fewer slices than requested workers when there
	// are fewer records than workers; pad with empty partitions so every
	// connecting worker still gets a handshake.
	for len(partitions) < workers {
		partitions = append(partitions, nil)
	}

	results := make([]workerResult, workers)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for i := 0; i < workers; i++ {
		conn, err := ln.Accept()
		if err != nil {
			results[i] = workerResult{err: apperr.New(apperr.TransportFailure, "accept worker", err)}
			continue
		}
		results[i] = m.serveWorker(conn, enabled, partitions[i])
	}

	// TransportFailure on one worker's connection does not abort the run:
	// the master logs it and keeps aggregating the workers that did
	// complete (spec's best-effort aggregation policy for this error kind).
	var totalProcessed uint64
	var alerts []model.Alert
	for i, r := range results {
		if r.err != nil {
			if m.Logger != nil {
				m.Logger.Warn("worker failed, continuing with remaining workers",
					"worker_index", i, "error", r.err.Error())
			}
			continue
		}
		totalProcessed += r.recordsProcessed
		alerts = append(alerts, r.alerts...)
	}

	metrics := model.Metrics{
		TotalRecords: totalProcessed,
		ExecutionMS:  t.elapsedMS(),
		Alerts:       alerts,
		Mode:         "distributed",
	}
	metrics.Finalize()
	return metrics, nil
}

type workerResult struct {
	recordsProcessed uint64
	alerts           []model.Alert
	err              error
}

func (m DistributedMaster) serveWorker(conn net.Conn, rules []model.Rule, part []model.Record) workerResult {
	defer conn.Close()

	if err := wire.WriteFrame(conn, wire.WorkerMessage{Type: wire.TypeRules, Rules: rules}); err != nil {
		return workerResult{err: err}
	}
	var ack wire.MasterMessage
	if err := wire.ReadFrame(conn, &ack); err != nil {
		return workerResult{err: err}
	}
	if ack.Type != wire.TypeAck {
		return workerResult{err: apperr.New(apperr.TransportFailure, "await rules ack",
			fmt.Errorf("unexpected message type %q", ack.Type))}
	}

	if err := wire.WriteFrame(conn, wire.WorkerMessage{Type: wire.TypeLogChunk, Records: part}); err != nil {
		return workerResult{err: err}
	}
	if err := wire.ReadFrame(conn, &ack); err != nil {
		return workerResult{err: err}
	}
	if ack.Type != wire.TypeAck {
		return workerResult{err: apperr.New(apperr.TransportFailure, "await log chunk ack",
			fmt.Errorf("unexpected message type %q", ack.Type))}
	}

	if err := wire.WriteFrame(conn, wire.WorkerMessage{Type: wire.TypeShutdown}); err != nil {
		return workerResult{err: err}
	}
	var res wire.MasterMessage
	if err := wire.ReadFrame(conn, &res); err != nil {
		return workerResult{err: err}
	}
	if res.Type == wire.TypeError {
		return workerResult{err: apperr.New(apperr.TransportFailure, "worker analysis", fmt.Errorf("%s", res.Error))}
	}
	if res.Type != wire.TypeAnalysisResult {
		return workerResult{err: apperr.New(apperr.TransportFailure, "await analysis result",
			fmt.Errorf("unexpected message type %q", res.Type))}
	}

	if m.Logger != nil {
		m.Logger.Debug("worker completed", "records_processed", res.RecordsProcessed, "alerts", len(res.Alerts))
	}
	return workerResult{recordsProcessed: res.RecordsProcessed, alerts: res.Alerts}
}
