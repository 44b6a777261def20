package wire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrywatch/sentrywatch/internal/model"
)

func TestWriteReadFrameRoundTripsWorkerMessage(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()

	sent := WorkerMessage{
		Type:  TypeRules,
		Rules: []model.Rule{{ID: "rule_001", Name: "test", Enabled: true, Kind: model.BruteForce}},
	}

	go func() {
		_ = WriteFrame(w, sent)
		w.Close()
	}()

	var got WorkerMessage
	require.NoError(t, ReadFrame(r, &got))
	assert.Equal(t, sent.Type, got.Type)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, "rule_001", got.Rules[0].ID)
}

func TestWriteReadFrameRoundTripsMasterMessage(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()

	sent := MasterMessage{Type: TypeAnalysisResult, RecordsProcessed: 42}

	go func() {
		_ = WriteFrame(w, sent)
		w.Close()
	}()

	var got MasterMessage
	require.NoError(t, ReadFrame(r, &got))
	assert.Equal(t, TypeAnalysisResult, got.Type)
	assert.EqualValues(t, 42, got.RecordsProcessed)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()

	go func() {
		header := []byte{0xff, 0xff, 0xff, 0xff}
		_, _ = w.Write(header)
		w.Close()
	}()

	var got MasterMessage
	err := ReadFrame(r, &got)
	assert.Error(t, err)
}
