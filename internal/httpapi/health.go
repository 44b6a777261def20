package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// healthResponse mirrors the shape of tareqmamari-cloud-logs-mcp's
// internal/health Checker output, trimmed to the one check this server
// actually has: whether its ruleset loaded successfully at startup.
type healthResponse struct {
	Status  string    `json:"status"`
	Time    time.Time `json:"time"`
	RuleCount int     `json:"rule_count"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		RuleCount: len(s.rules.Rules()),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
