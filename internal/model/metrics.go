package model

// Metrics summarizes a single executor run.
type Metrics struct {
	TotalRecords     uint64  `json:"total_records"`
	ExecutionMS      float64 `json:"execution_ms"`
	RecordsPerSecond float64 `json:"records_per_second"`
	Alerts           []Alert `json:"alerts"`
	Mode             string  `json:"mode"`
}

// Finalize computes RecordsPerSecond from TotalRecords and ExecutionMS,
// guarding against division by zero for very fast (sub-millisecond) runs.
func (m *Metrics) Finalize() {
	if m.ExecutionMS <= 0 {
		m.RecordsPerSecond = 0
		return
	}
	m.RecordsPerSecond = float64(m.TotalRecords) / (m.ExecutionMS / 1000.0)
}
