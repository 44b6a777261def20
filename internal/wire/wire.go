// Package wire implements the length-prefixed JSON framing used by the
// distributed executor: a 4-byte little-endian length prefix followed by a
// JSON body. Grounded on original_source/backend/src/distributed_analysis's
// master/worker exchange (bincode-style length-prefixed framing over
// net.Conn in the Rust source, re-expressed here with JSON bodies since the
// rest of the codebase is already JSON-first).
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sentrywatch/sentrywatch/internal/apperr"
	"github.com/sentrywatch/sentrywatch/internal/model"
)

// maxFrameBytes bounds a single frame body, guarding a corrupt or hostile
// length prefix from driving an unbounded allocation.
const maxFrameBytes = 256 << 20 // 256 MiB

// Master -> worker message types, carried in WorkerMessage.
const (
	TypeRules         = "rules"
	TypeLogChunk      = "log_chunk"
	TypeStartAnalysis = "start_analysis"
	TypeShutdown      = "shutdown"
)

// Worker -> master message types, carried in MasterMessage.
const (
	TypeAck            = "ack"
	TypeAnalysisResult = "analysis_result"
	TypeError          = "error"
)

// WorkerMessage is sent by the master to a connected worker: Rules seeds the
// worker's detector, LogChunk hands it a partition to analyze, StartAnalysis
// is reserved and currently ignored by the worker (kept for wire
// compatibility with a future streaming mode), Shutdown ends the session.
type WorkerMessage struct {
	Type    string         `json:"type"`
	Rules   []model.Rule   `json:"rules,omitempty"`
	Records []model.Record `json:"records,omitempty"`
}

// MasterMessage is sent by a worker back to the master in response to each
// WorkerMessage: Ack acknowledges Rules, LogChunk and StartAnalysis,
// AnalysisResult answers Shutdown with the totals for the whole session,
// Error reports a failure the worker could not recover from on its own.
type MasterMessage struct {
	Type             string        `json:"type"`
	RecordsProcessed uint64        `json:"records_processed,omitempty"`
	Alerts           []model.Alert `json:"alerts,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// WriteFrame encodes v as JSON and writes it to w prefixed with its
// little-endian u32 length.
func WriteFrame(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return apperr.New(apperr.TransportFailure, "marshal frame", err)
	}
	if len(body) > maxFrameBytes {
		return apperr.New(apperr.TransportFailure, "write frame",
			fmt.Errorf("frame body of %d bytes exceeds %d byte limit", len(body), maxFrameBytes))
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))

	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	if _, err := bw.Write(header[:]); err != nil {
		return apperr.New(apperr.TransportFailure, "write frame header", err)
	}
	if _, err := bw.Write(body); err != nil {
		return apperr.New(apperr.TransportFailure, "write frame body", err)
	}
	return apperr.New(apperr.TransportFailure, "flush frame", bw.Flush())
}

// ReadFrame reads one length-prefixed JSON frame from r and decodes it
// into v, which must be a pointer to a WorkerMessage or MasterMessage.
func ReadFrame(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return apperr.New(apperr.TransportFailure, "read frame header", err)
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length > maxFrameBytes {
		return apperr.New(apperr.TransportFailure, "read frame",
			fmt.Errorf("frame length %d exceeds %d byte limit", length, maxFrameBytes))
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return apperr.New(apperr.TransportFailure, "read frame body", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.New(apperr.TransportFailure, "unmarshal frame", err)
	}
	return nil
}
