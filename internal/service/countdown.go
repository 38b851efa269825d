package service

import (
	"fmt"
	"time"

	"landing-v2/internal/domain"
)

// CountdownWindow is how far ahead of page initialization the deadline lies
const CountdownWindow = 24 * time.Hour

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Countdown renders the time left until a deadline fixed at construction
type Countdown struct {
	deadline time.Time
}

// NewCountdown fixes the deadline at start + window
func NewCountdown(start time.Time, window time.Duration) *Countdown {
	return &Countdown{deadline: start.Add(window)}
}

// Deadline returns the fixed deadline
func (c *Countdown) Deadline() time.Time {
	return c.deadline
}

// Remaining returns the distance to the deadline; negative once it has passed
func (c *Countdown) Remaining(now time.Time) time.Duration {
	return c.deadline.Sub(now)
}

// Display renders the countdown at now. Hours wrap at 24 so a distance of a
// day or more only shows the sub-day part; a passed deadline renders zeros.
func (c *Countdown) Display(now time.Time) domain.CountdownDisplay {
	distance := c.Remaining(now).Milliseconds()
	if distance < 0 {
		return domain.CountdownDisplay{Hours: "00", Minutes: "00", Seconds: "00"}
	}

	hours := (distance % msPerDay) / msPerHour
	minutes := (distance % msPerHour) / msPerMinute
	seconds := (distance % msPerMinute) / msPerSecond

	return domain.CountdownDisplay{
		Hours:   fmt.Sprintf("%02d", hours),
		Minutes: fmt.Sprintf("%02d", minutes),
		Seconds: fmt.Sprintf("%02d", seconds),
	}
}
