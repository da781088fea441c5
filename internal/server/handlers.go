package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ordervox/internal/audio"
	"ordervox/internal/logging"
	"ordervox/internal/orders"
	"ordervox/internal/services"
	"ordervox/internal/usage"
)

// OrderResponse is the API view of a processed voice order.
type OrderResponse struct {
	RequestID  string        `json:"request_id"`
	Transcript string        `json:"transcript"`
	Items      []orders.Item `json:"items"`
	Cached     bool          `json:"cached"`
	Optimized  bool          `json:"optimized"`
	Cost       float64       `json:"cost"`
}

// StatusResponse combines budget state with cache effectiveness for
// the monitoring endpoint.
type StatusResponse struct {
	Usage        usage.Stats `json:"usage"`
	Alert        string      `json:"alert,omitempty"`
	CacheEntries int         `json:"cache_entries"`
	CacheHits    int64       `json:"cache_hits"`
	CacheMisses  int64       `json:"cache_misses"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "audio clip exceeds the size limit")
		return
	}

	format := audio.FormatFromContentType(r.Header.Get("Content-Type"))
	result, err := s.pipeline.Process(r.Context(), body, format)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OrderResponse{
		RequestID:  result.RequestID,
		Transcript: result.TranscriptionText,
		Items:      result.Items,
		Cached:     result.Cached,
		Optimized:  result.Optimized,
		Cost:       result.Cost,
	})
}

// writeProcessError maps the pipeline error taxonomy onto HTTP. Budget
// denial is a distinct outcome so clients can fall back to cached
// content instead of treating it as a server fault.
func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBudgetExceeded):
		writeError(w, http.StatusTooManyRequests, "budget_exceeded",
			"daily transcription budget exhausted; only cached requests are served")
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, services.ErrTimeout), errors.Is(err, services.ErrTransient):
		writeError(w, http.StatusBadGateway, "transcription_unavailable",
			"transcription backend failed after retries; try again later")
	default:
		s.logger.Error("order processing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "order processing failed")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}

	stats, err := s.tracker.CurrentStats(r.Context())
	if err != nil {
		s.logger.Error("status query failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "usage stats unavailable")
		return
	}
	cacheStats := s.cache.CurrentStats()

	writeJSON(w, http.StatusOK, StatusResponse{
		Usage:        stats,
		Alert:        string(stats.Alert(s.cfg.Budget.WarningUtilization)),
		CacheEntries: cacheStats.Entries,
		CacheHits:    cacheStats.Hits,
		CacheMisses:  cacheStats.Misses,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Kind: kind, Message: message})
}
