package alice

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"AliceBridge/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shirou/gopsutil/v3/process"
)

const maxRequestBody = 64 << 10

// MemoryStats is the memory section of the health report
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heap_inuse"`
	NumGC      uint32 `json:"num_gc"`
	RSS        uint64 `json:"rss,omitempty"`
	VMS        uint64 `json:"vms,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string      `json:"status"`
	Time     string      `json:"time"`
	Variant  string      `json:"variant"`
	Model    string      `json:"model"`
	Sessions int         `json:"sessions"`
	Uptime   string      `json:"uptime"`
	Memory   MemoryStats `json:"memory"`
	Error    string      `json:"error,omitempty"`
}

// Server exposes the bridge over HTTP
type Server struct {
	bridge  *Bridge
	metrics *telemetry.Metrics
	logger  *slog.Logger
	started time.Time
	proc    *process.Process
}

// NewServer creates the HTTP front of a bridge
func NewServer(bridge *Bridge, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		bridge:  bridge,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn("process stats unavailable", "error", err)
	} else {
		s.proc = proc
	}
	return s
}

// Handler returns the router serving /alice, /health and /metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Post("/alice", s.handleAlice)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// handleAlice always answers 200: the skill protocol has no error channel
func (s *Server) handleAlice(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), s.logger)

	var req Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		s.bridge.count(telemetry.OutcomeInvalid)
		writeJSON(w, http.StatusOK, reply(InvalidRequestText, false), logger)
		return
	}

	writeJSON(w, http.StatusOK, s.bridge.Handle(r.Context(), &req), logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), s.logger)

	resp := HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Variant: s.bridge.variant.Name,
		Model:   s.bridge.provider.Model(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Memory:  s.memoryStats(r),
	}

	status := http.StatusOK
	n, err := s.bridge.Sessions(r.Context())
	if err != nil {
		logger.Error("session count failed", "error", err)
		resp.Status = "error"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	resp.Sessions = n

	writeJSON(w, status, resp, logger)
}

func (s *Server) memoryStats(r *http.Request) MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := MemoryStats{
		Alloc:      ms.Alloc,
		TotalAlloc: ms.TotalAlloc,
		Sys:        ms.Sys,
		HeapInuse:  ms.HeapInuse,
		NumGC:      ms.NumGC,
	}

	if s.proc != nil {
		if info, err := s.proc.MemoryInfoWithContext(r.Context()); err == nil {
			stats.RSS = info.RSS
			stats.VMS = info.VMS
		}
	}
	return stats
}
