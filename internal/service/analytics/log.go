package analytics

import (
	"context"

	"landing-v2/internal/domain"
	"landing-v2/pkg/logger"
)

// LogTracker writes every event to the application log
type LogTracker struct {
	logger *logger.Logger
}

func NewLogTracker(log *logger.Logger) *LogTracker {
	return &LogTracker{logger: log}
}

func (l *LogTracker) Name() string { return "log" }

func (l *LogTracker) Track(_ context.Context, event domain.Event) error {
	l.logger.WithFields(map[string]interface{}{
		"event":      event.Name,
		"event_id":   event.ID,
		"client_id":  event.ClientID,
		"attributes": map[string]interface{}(event.Attributes),
	}).Info("Event tracked")
	return nil
}
