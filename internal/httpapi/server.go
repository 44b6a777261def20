// Package httpapi exposes the detection pipeline over HTTP: log upload,
// rule management, the three execution strategies, two AI advisory
// endpoints, and the usual /healthz and /metrics pair. Grounded on
// retr0ever-Veil's chi-based internal/proxy and internal/handlers for the
// router shape, and on tareqmamari-cloud-logs-mcp's internal/health and
// internal/metrics for the operational endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentrywatch/sentrywatch/internal/detector"
	"github.com/sentrywatch/sentrywatch/internal/executor"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/model"
	"github.com/sentrywatch/sentrywatch/internal/nlhelper"
	"github.com/sentrywatch/sentrywatch/internal/parser"
	"github.com/sentrywatch/sentrywatch/internal/ruleset"
)

// Server holds everything a request handler needs: the live ruleset, a
// parser for raw uploads, a shared mutex-guarded Detector for the
// stateful /api/logs/upload path, and the NL helper bridge.
type Server struct {
	logger  *logging.Logger
	rules   *ruleset.RuleSet
	parser  *parser.Parser
	metrics *serverMetrics

	// Helper backs the two AI advisory endpoints. Defaults to
	// nlhelper.NewFromEnv(); callers that loaded a config file override
	// individual script/interpreter paths on the returned Server before
	// serving any requests.
	Helper nlhelper.Helper

	// DistributedAddr/DistributedWorkers configure the one-shot master
	// spun up by /api/analyze/distributed; workers must dial in within the
	// request's 60-second deadline. When the deadline passes first, the
	// listener closes and the response carries only the workers that had
	// completed their handshake.
	DistributedAddr    string
	DistributedWorkers int

	mu       sync.Mutex
	detector *detector.Detector
}

// NewServer builds a Server. parser may be nil if no upload parsing rules
// are configured, in which case /api/logs/upload evaluates every line as a
// raw, unparsed record.
func NewServer(logger *logging.Logger, rules *ruleset.RuleSet, p *parser.Parser) *Server {
	return &Server{
		logger:             logger,
		rules:              rules,
		parser:             p,
		Helper:             nlhelper.NewFromEnv(),
		metrics:            newServerMetrics(),
		DistributedAddr:    "127.0.0.1:8081",
		DistributedWorkers: 1,
		detector:           detector.New(rules.Enabled(), logger),
	}
}

// Router builds the chi mux for the whole HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.metrics.instrument("healthz", s.handleHealthz))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/api/logs/upload", s.metrics.instrument("logs_upload", s.handleLogsUpload))
	r.Get("/api/rules", s.metrics.instrument("rules_list", s.handleRulesList))
	r.Post("/api/rules/load", s.metrics.instrument("rules_load", s.handleRulesLoad))
	r.Post("/api/rules/add", s.metrics.instrument("rules_add", s.handleRulesAdd))
	r.Post("/api/analyze/{mode}", s.metrics.instrument("analyze", s.handleAnalyze))
	r.Post("/api/ai/explain", s.metrics.instrument("ai_explain", s.handleAIExplain))
	r.Post("/api/ai/generate-rule", s.metrics.instrument("ai_generate_rule", s.handleAIGenerateRule))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleLogsUpload parses the raw body into records (if a parser is
// configured) and runs them through the shared, mutex-guarded Detector so
// state accumulates across uploads, mirroring a long-lived tail session.
func (s *Server) handleLogsUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var records []model.Record
	if s.parser != nil {
		records = s.parser.ParseLines(string(body))
	} else {
		for _, line := range splitLines(string(body)) {
			records = append(records, model.NewRecord(line))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []model.Alert
	for _, rec := range records {
		fired, err := s.detector.Evaluate(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		alerts = append(alerts, fired...)
	}
	s.metrics.observeAlerts(alerts)

	writeJSON(w, http.StatusOK, alerts)
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

func (s *Server) handleRulesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rules.Rules())
}

func (s *Server) handleRulesLoad(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON-encoded string containing the rules document")
		return
	}
	if err := s.rules.LoadJSON([]byte(raw)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.detector = detector.New(s.rules.Enabled(), s.logger)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.rules.Rules())
}

func (s *Server) handleRulesAdd(w http.ResponseWriter, r *http.Request) {
	var rule model.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule JSON")
		return
	}
	added, err := s.rules.AddRule(rule)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.detector = detector.New(s.rules.Enabled(), s.logger)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, added)
}

// handleAnalyze runs the named driver over a fresh detector scoped to this
// one request — the three strategies must be directly comparable against
// the same input, so none of them touches the shared /api/logs/upload
// detector state.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")

	var records []model.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of records")
		return
	}

	var exec executor.Executor
	switch mode {
	case "sequential":
		exec = executor.Sequential{Logger: s.logger}
	case "parallel":
		exec = executor.Parallel{Logger: s.logger}
	case "distributed":
		exec = executor.DistributedMaster{
			Addr:    s.DistributedAddr,
			Workers: s.DistributedWorkers,
			Logger:  s.logger,
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown mode: must be sequential, parallel, or distributed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	metrics, err := exec.Run(ctx, records, s.rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.observeAlerts(metrics.Alerts)
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleAIExplain(w http.ResponseWriter, r *http.Request) {
	var alert model.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert JSON")
		return
	}

	explanation, ok := s.Helper.ExplainAlert(r.Context(), alert)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, explanation)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

func (s *Server) handleAIGenerateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := s.Helper.GenerateRule(r.Context(), req.Description)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rule)
}
