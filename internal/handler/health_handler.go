package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"landing-v2/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Pages     int               `json:"pages"`
	Trackers  []string          `json:"trackers"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health. Optional backends that are down degrade the
// status but never fail the check: the page works without them.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	logger.Debug("Health check requested")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "landing-v2",
		Pages:     h.container.Sessions.Len(),
		Trackers:  h.container.Sink.Trackers(),
		Checks:    map[string]string{},
	}

	if h.container.HasRedis() {
		response.Checks["redis"] = checkStatus(h.container.RedisClient.Health(ctx))
	}
	if h.container.HasDatabase() {
		response.Checks["database"] = checkStatus(h.container.DB.Health(ctx))
	}
	for _, status := range response.Checks {
		if status != "ok" {
			response.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode health check response")
		return
	}

	logger.Debug("Health check completed successfully")
}

func checkStatus(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
