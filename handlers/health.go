package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"focusapps.app/bridge/internal/logger"
)

type HealthResponse struct {
	Status    string     `json:"status"`
	Version   string     `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
	Events    EventStats `json:"events"`
}

type EventStats struct {
	Processed int64 `json:"processed"`
	Ignored   int64 `json:"ignored"`
	Failed    int64 `json:"failed"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now(),
		Events: EventStats{
			Processed: s.Stats.Processed.Load(),
			Ignored:   s.Stats.Ignored.Load(),
			Failed:    s.Stats.Failed.Load(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode health response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
