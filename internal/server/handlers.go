package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
)

type classifyRequest struct {
	Symbols    []string `json:"symbols"`
	Concurrent bool     `json:"concurrent"`
}

type classifyResponse struct {
	BatchID string                    `json:"batch_id"`
	Results []classify.Classification `json:"results"`
}

// handleClassify classifies a batch of symbols.
// POST /api/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "symbols must not be empty")
		return
	}

	batchID := uuid.NewString()
	start := time.Now()

	var results []classify.Classification
	if req.Concurrent {
		results = s.classifier.ClassifyConcurrent(r.Context(), req.Symbols)
	} else {
		results = s.classifier.Classify(r.Context(), req.Symbols)
	}

	s.log.Info().
		Str("batch_id", batchID).
		Int("symbols", len(req.Symbols)).
		Bool("concurrent", req.Concurrent).
		Dur("elapsed", time.Since(start)).
		Msg("Classified batch")

	s.writeJSON(w, http.StatusOK, classifyResponse{BatchID: batchID, Results: results})
}

// handleEvictExpired sweeps expired cache rows.
// POST /api/cache/evict
func (s *Server) handleEvictExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.EvictExpired()
	if err != nil {
		s.log.Error().Err(err).Msg("Cache eviction failed")
		s.writeError(w, http.StatusInternalServerError, "eviction failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// handleClearCache removes all cache rows.
// DELETE /api/cache
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(); err != nil {
		s.log.Error().Err(err).Msg("Cache clear failed")
		s.writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleBackup uploads the cache database to the configured bucket.
// POST /api/backup
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		s.writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}

	key, err := s.backup.Run(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Backup failed")
		s.writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CacheEntries  int64   `json:"cache_entries"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemPercent    float64 `json:"mem_percent"`
}

// handleHealth reports service liveness and basic system stats.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Count()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to count cache entries")
	}

	cpuPct, memPct := s.systemStats()

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		CacheEntries:  entries,
		CPUPercent:    cpuPct,
		MemPercent:    memPct,
	})
}

// systemStats samples CPU and RAM usage. A short interval keeps the health
// endpoint responsive.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
