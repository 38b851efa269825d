package repository

import (
	"context"
	"fmt"
	"time"

	"landing-v2/internal/domain"
	"landing-v2/pkg/database"
)

type PostgresEventRepository struct {
	db *database.PostgresDB
}

func NewEventRepository(db *database.PostgresDB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Insert stores one analytics event
func (r *PostgresEventRepository) Insert(ctx context.Context, event *domain.StoredEvent) error {
	query := `
		INSERT INTO analytics_events (event_id, name, category, label, value, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.EventID,
		event.Name,
		event.Category,
		event.Label,
		event.Value,
		event.OccurredAt,
	).Scan(&event.ID)

	if err != nil {
		if isNoRows(err) {
			// Already stored under the same event_id
			return nil
		}
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}

	return nil
}

// CountSince counts events per name
func (r *PostgresEventRepository) CountSince(ctx context.Context, since time.Time) (domain.EventCounts, error) {
	query := `
		SELECT name, COUNT(*)
		FROM analytics_events
		WHERE occurred_at >= $1
		GROUP BY name
	`

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count analytics events: %w", err)
	}
	defer rows.Close()

	counts := domain.EventCounts{}
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[name] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}

	return counts, nil
}
