package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"landing-v2/internal/domain"
	"landing-v2/pkg/redis"
)

const dayLayout = "2006-01-02"

// CounterTracker keeps per-event counters in Redis: one hash per day and an
// all-time hash, keyed by event name
type CounterTracker struct {
	redis *redis.Client
}

func NewCounterTracker(client *redis.Client) *CounterTracker {
	return &CounterTracker{redis: client}
}

func (c *CounterTracker) Name() string { return "redis_counter" }

func (c *CounterTracker) Track(ctx context.Context, event domain.Event) error {
	dailyKey := c.redis.KeyBuilder.KeyEventDaily(event.OccurredAt.UTC().Format(dayLayout))

	pipe := c.redis.Pipeline()
	pipe.HIncrBy(ctx, dailyKey, event.Name, 1)
	pipe.Expire(ctx, dailyKey, redis.TTLEventDaily)
	pipe.HIncrBy(ctx, c.redis.KeyBuilder.KeyEventTotals(), event.Name, 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment event counters: %w", err)
	}
	return nil
}

// Totals returns all-time counts per event name
func (c *CounterTracker) Totals(ctx context.Context) (domain.EventCounts, error) {
	return c.read(ctx, c.redis.KeyBuilder.KeyEventTotals())
}

// Daily returns the counts for the UTC day containing day
func (c *CounterTracker) Daily(ctx context.Context, day time.Time) (domain.EventCounts, error) {
	return c.read(ctx, c.redis.KeyBuilder.KeyEventDaily(day.UTC().Format(dayLayout)))
}

func (c *CounterTracker) read(ctx context.Context, key string) (domain.EventCounts, error) {
	raw, err := c.redis.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read event counters: %w", err)
	}

	counts := make(domain.EventCounts, len(raw))
	for name, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt counter for %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
