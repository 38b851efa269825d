package analytics

import (
	"context"

	"landing-v2/internal/domain"
	"landing-v2/internal/repository"
)

// StoreTracker appends events to the event repository. Only the event name
// and its category, label and value are kept.
type StoreTracker struct {
	repo repository.EventRepository
}

func NewStoreTracker(repo repository.EventRepository) *StoreTracker {
	return &StoreTracker{repo: repo}
}

func (s *StoreTracker) Name() string { return "event_store" }

func (s *StoreTracker) Track(ctx context.Context, event domain.Event) error {
	stored := &domain.StoredEvent{
		EventID:    event.ID,
		Name:       event.Name,
		Category:   event.Attributes.Category(),
		Label:      event.Attributes.Label(),
		OccurredAt: event.OccurredAt,
	}
	if v, ok := event.Attributes.Value(); ok {
		stored.Value = &v
	}
	return s.repo.Insert(ctx, stored)
}
