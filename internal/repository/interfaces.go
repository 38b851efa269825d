package repository

import (
	"context"
	"time"

	"landing-v2/internal/domain"
)

// EventRepository defines the interface for analytics event storage
type EventRepository interface {
	// Insert appends an event and sets its ID
	Insert(ctx context.Context, event *domain.StoredEvent) error

	// CountSince returns per-event-name counts of events that occurred at or after since
	CountSince(ctx context.Context, since time.Time) (domain.EventCounts, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Event EventRepository
}
