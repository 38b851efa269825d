package handler

import (
	"context"
	"net/http"
	"time"

	"landing-v2/internal/domain"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"
)

// EventCounter reads the Redis event counters
type EventCounter interface {
	Totals(ctx context.Context) (domain.EventCounts, error)
	Daily(ctx context.Context, day time.Time) (domain.EventCounts, error)
}

// EventCountStore reads counts from the event store
type EventCountStore interface {
	CountSince(ctx context.Context, since time.Time) (domain.EventCounts, error)
}

// AnalyticsHandler reports event counts
type AnalyticsHandler struct {
	counter EventCounter
	store   EventCountStore
	logger  *logger.Logger
	now     func() time.Time
}

// NewAnalyticsHandler takes either source; nil means not configured
func NewAnalyticsHandler(counter EventCounter, store EventCountStore, logger *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		counter: counter,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// CountsResponse is the body of GET /api/analytics/counts
type CountsResponse struct {
	Source string             `json:"source"`
	Date   string             `json:"date"`
	Daily  domain.EventCounts `json:"daily"`
	Totals domain.EventCounts `json:"totals,omitempty"`
}

// Counts handles GET /api/analytics/counts?date=YYYY-MM-DD
func (h *AnalyticsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	day := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, r, h.logger, apperrors.NewValidationError("date must be YYYY-MM-DD", map[string]interface{}{"date": raw}))
			return
		}
		day = parsed
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	ctx := r.Context()
	resp := CountsResponse{Date: dayStart.Format("2006-01-02")}

	switch {
	case h.counter != nil:
		daily, err := h.counter.Daily(ctx, dayStart)
		if err != nil {
			respondError(w, r, h.logger, apperrors.NewInternalError("Failed to read event counters", err))
			return
		}
		totals, err := h.counter.Totals(ctx)
		if err != nil {
			respondError(w, r, h.logger, apperrors.NewInternalError("Failed to read event counters", err))
			return
		}
		resp.Source, resp.Daily, resp.Totals = "redis", daily, totals

	case h.store != nil:
		since, err := h.store.CountSince(ctx, dayStart)
		if err != nil {
			respondError(w, r, h.logger, apperrors.NewInternalError("Failed to count stored events", err))
			return
		}
		resp.Source, resp.Daily = "postgres", since

	default:
		respondError(w, r, h.logger, apperrors.NewNotFoundError("Event counting is not configured"))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
