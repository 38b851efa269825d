package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"landing-v2/internal/domain"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"

	"github.com/google/uuid"
)

// DefaultDeliveryTimeout bounds a single tracker delivery
const DefaultDeliveryTimeout = 5 * time.Second

// Tracker is one analytics destination
type Tracker interface {
	Name() string
	Track(ctx context.Context, event domain.Event) error
}

// Initializer is implemented by trackers that announce a page view when a page starts
type Initializer interface {
	Init(ctx context.Context, clientID string) error
}

// Dispatcher fans events out to its trackers. Deliveries run in the
// background; failures and panics are logged and never reach the caller.
type Dispatcher struct {
	trackers []Tracker
	logger   *logger.Logger
	timeout  time.Duration
	now      func() time.Time

	// pending counts deliveries in flight; idle is closed when it drops to zero
	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

// NewDispatcher creates a dispatcher over trackers. With no trackers every
// event is dropped.
func NewDispatcher(log *logger.Logger, trackers ...Tracker) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		trackers: trackers,
		logger:   log.Named("analytics"),
		timeout:  DefaultDeliveryTimeout,
		now:      time.Now,
	}
}

// Trackers returns the names of the configured trackers
func (d *Dispatcher) Trackers() []string {
	names := make([]string, 0, len(d.trackers))
	for _, t := range d.trackers {
		names = append(names, t.Name())
	}
	return names
}

// Initialize runs Init on every tracker that supports it
func (d *Dispatcher) Initialize(ctx context.Context) {
	clientID := ClientIDFromContext(ctx)
	for _, t := range d.trackers {
		initializer, ok := t.(Initializer)
		if !ok {
			continue
		}
		d.deliver(ctx, t.Name(), func(ctx context.Context) error {
			return initializer.Init(ctx, clientID)
		})
	}
}

// Track implements the page's analytics sink
func (d *Dispatcher) Track(ctx context.Context, name string, attrs domain.Attributes) {
	event := domain.Event{
		ID:         uuid.NewString(),
		Name:       name,
		ClientID:   ClientIDFromContext(ctx),
		Attributes: copyAttributes(attrs),
		OccurredAt: d.now().UTC(),
	}

	for _, t := range d.trackers {
		t := t
		d.deliver(ctx, t.Name(), func(ctx context.Context) error {
			return t.Track(ctx, event)
		})
	}
}

// Flush waits until no delivery is in flight or ctx is done. It may run
// concurrently with Track; deliveries started meanwhile are waited for too.
func (d *Dispatcher) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.pending == 0 {
		d.mu.Unlock()
		return nil
	}
	if d.idle == nil {
		d.idle = make(chan struct{})
	}
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) begin() {
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()
}

func (d *Dispatcher) end() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending--
	if d.pending == 0 && d.idle != nil {
		close(d.idle)
		d.idle = nil
	}
}

func (d *Dispatcher) deliver(ctx context.Context, tracker string, fn func(ctx context.Context) error) {
	// Deliveries outlive the request that triggered them
	base := context.WithoutCancel(ctx)

	d.begin()
	go func() {
		defer d.end()
		defer func() {
			if r := recover(); r != nil {
				d.report(apperrors.NewSinkError(tracker, fmt.Errorf("panic: %v", r)))
			}
		}()

		deliveryCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		if err := fn(deliveryCtx); err != nil {
			d.report(apperrors.NewSinkError(tracker, err))
		}
	}()
}

func (d *Dispatcher) report(err *apperrors.AppError) {
	d.logger.WithError(err).WithFields(err.Details).Warn("Analytics delivery failed")
}

func copyAttributes(attrs domain.Attributes) domain.Attributes {
	out := make(domain.Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
