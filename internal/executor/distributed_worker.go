package executor

import (
	"context"
	"fmt"
	"net"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/detector"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/wire"
)

// DistributedWorker dials out to a DistributedMaster and runs its side of
// the Rules -> LogChunk -> Shutdown handshake, analyzing the chunk it
// receives with a private Detector before reporting back.
type DistributedWorker struct {
	MasterAddr string
	Logger     *logging.Logger
}

// Run connects to the master and processes exactly one session: seed
// rules, analyze one chunk, report results, then return. It does not loop
// or retry; a caller that wants a long-lived worker process wraps Run in
// its own retry loop.
func (w DistributedWorker) Run(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", w.MasterAddr)
	if err != nil {
		return apperr.New(apperr.TransportFailure, "dial master", err)
	}
	defer conn.Close()

	var det *detector.Detector
	var recordsProcessed uint64
	var alerts []model.Alert

	for {
		var msg wire.WorkerMessage
		if err := wire.ReadFrame(conn, &msg); err != nil {
			return err
		}

		switch msg.Type {
		case wire.TypeRules:
			det = detector.New(msg.Rules, w.Logger)
			if err := wire.WriteFrame(conn, wire.MasterMessage{Type: wire.TypeAck}); err != nil {
				return err
			}

		case wire.TypeLogChunk:
			if det == nil {
				det = detector.New(nil, w.Logger)
			}
			for _, rec := range msg.Records {
				fired, err := det.Evaluate(rec)
				if err != nil {
					_ = wire.WriteFrame(conn, wire.MasterMessage{Type: wire.TypeError, Error: err.Error()})
					return err
				}
				alerts = append(alerts, fired...)
			}
			recordsProcessed += uint64(len(msg.Records))
			if err := wire.WriteFrame(conn, wire.MasterMessage{Type: wire.TypeAck}); err != nil {
				return err
			}

		case wire.TypeStartAnalysis:
			if err := wire.WriteFrame(conn, wire.MasterMessage{Type: wire.TypeAck}); err != nil {
				return err
			}

		case wire.TypeShutdown:
			return wire.WriteFrame(conn, wire.MasterMessage{
				Type:             wire.TypeAnalysisResult,
				RecordsProcessed: recordsProcessed,
				Alerts:           alerts,
			})

		default:
			return apperr.New(apperr.TransportFailure, "handle worker message",
				fmt.Errorf("unknown message type %q", msg.Type))
		}
	}
}
