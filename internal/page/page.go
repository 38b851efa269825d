package page

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"landing-v2/internal/domain"
	"landing-v2/internal/service"
	"landing-v2/internal/service/analytics"
	"landing-v2/pkg/logger"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrClosed is returned for events sent to a page that has shut down
	ErrClosed = errors.New("page closed")
	// ErrUnknownField is returned for input events on a field without validation
	ErrUnknownField = errors.New("unknown field")
)

// maxLocationLength caps CTA locations reported by clients
const maxLocationLength = 64

// Sink is the analytics sink a page reports to
type Sink interface {
	service.Sink
	Initialize(ctx context.Context)
}

type Options struct {
	SessionID        string
	Query            url.Values
	GTMID            string
	FBPixelID        string
	Layout           Layout
	ScrollOffset     int
	ConfirmationPath string
	SubscribeTimeout time.Duration
	Sink             Sink
	Subscriber       service.Subscriber
	Logger           *logger.Logger
	// Now defaults to time.Now
	Now func() time.Time
	// TickInterval drives the countdown, one second by default
	TickInterval time.Duration
}

// SubmitResult is the settled result of a submit event
type SubmitResult struct {
	Outcome service.SubmissionOutcome `json:"outcome"`
	Page    domain.PageSnapshot       `json:"page"`
}

// Page is one visitor's running landing page. All page state is owned by a
// single goroutine; the exported methods send it events and wait for the reply.
type Page struct {
	ctx          context.Context
	doc          *Document
	controller   *service.SubmissionController
	countdown    *service.Countdown
	sink         Sink
	logger       *logger.Logger
	scrollOffset int
	now          func() time.Time
	tick         time.Duration
	sanitizer    *bluemonday.Policy

	events  chan func()
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// waiters are submit callers blocked on an in-flight request
	waiters []chan SubmitResult

	busy       atomic.Bool
	navigated  atomic.Bool
	lastActive atomic.Int64
}

// New creates a page and starts its loop. The page initializes itself
// before it handles any other event.
func New(opts Options) *Page {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Layout.Offsets == nil {
		opts.Layout = DefaultLayout(0)
	}

	p := &Page{
		ctx:          analytics.WithClientID(context.Background(), opts.SessionID),
		doc:          NewDocument(opts.SessionID, opts.Query, opts.GTMID, opts.FBPixelID, opts.Layout),
		countdown:    service.NewCountdown(opts.Now(), service.CountdownWindow),
		sink:         opts.Sink,
		logger:       opts.Logger.WithField("session_id", opts.SessionID),
		scrollOffset: opts.ScrollOffset,
		now:          opts.Now,
		tick:         opts.TickInterval,
		sanitizer:    bluemonday.StrictPolicy(),
		events:       make(chan func(), 16),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}

	p.controller = service.NewSubmissionController(service.ControllerOptions{
		Surface:          p.doc,
		Sink:             opts.Sink,
		Subscriber:       opts.Subscriber,
		Scheduler:        p,
		Logger:           p.logger,
		ConfirmationPath: opts.ConfirmationPath,
		Timeout:          opts.SubscribeTimeout,
		Now:              opts.Now,
		OnSettled:        p.settle,
	})
	p.touch()

	go p.run()
	return p
}

// Post implements service.Scheduler. Events posted after Close are dropped.
func (p *Page) Post(fn func()) {
	select {
	case p.events <- fn:
	case <-p.done:
	}
}

// Close stops the loop. Submit callers still waiting get ErrClosed.
func (p *Page) Close() {
	p.once.Do(func() {
		close(p.done)
	})
	<-p.stopped
}

// Busy reports whether a submission is in flight
func (p *Page) Busy() bool {
	return p.busy.Load()
}

// Navigated reports whether the page has left for its confirmation page
func (p *Page) Navigated() bool {
	return p.navigated.Load()
}

// LastActive is the time the page last handled an event
func (p *Page) LastActive() time.Time {
	return time.Unix(0, p.lastActive.Load())
}

func (p *Page) run() {
	defer close(p.stopped)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	p.initialize()

	for {
		select {
		case fn := <-p.events:
			fn()
			p.afterEvent()
		case <-ticker.C:
			p.doc.SetCountdown(p.countdown.Display(p.now()))
		case <-p.done:
			return
		}
	}
}

// initialize mirrors page load: trackers, footer, countdown, then PageLoad
func (p *Page) initialize() {
	p.sink.Initialize(p.ctx)
	p.updateFooter(0, p.doc.layout.ViewportHeight)
	p.doc.SetCountdown(p.countdown.Display(p.now()))
	p.sink.Track(p.ctx, domain.EventPageLoad, domain.Attributes{
		domain.AttrCategory: "engagement",
		domain.AttrLabel:    "landing_page_view",
	})
	p.logger.Debug("Page initialized")
}

// afterEvent publishes the flags read from outside the loop
func (p *Page) afterEvent() {
	p.touch()
	p.busy.Store(p.controller.State() == domain.Submitting)
	p.navigated.Store(p.doc.Redirect() != "")
}

func (p *Page) touch() {
	p.lastActive.Store(p.now().UnixNano())
}

// call runs fn on the loop and waits for it to finish
func (p *Page) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case p.events <- wrapped:
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page) snapshot() domain.PageSnapshot {
	return p.doc.Snapshot(p.controller.State())
}

// Submit types input into the form and submits it. When a request goes out,
// Submit waits for it to settle.
func (p *Page) Submit(ctx context.Context, input domain.FormInput) (SubmitResult, error) {
	reply := make(chan SubmitResult, 1)

	err := p.call(ctx, func() {
		p.doc.SetValues(input)
		outcome := p.controller.Submit(p.ctx)
		if outcome == service.OutcomePending {
			p.waiters = append(p.waiters, reply)
			return
		}
		p.afterEvent()
		reply <- SubmitResult{Outcome: outcome, Page: p.snapshot()}
	})
	if err != nil {
		return SubmitResult{}, err
	}

	select {
	case result := <-reply:
		return result, nil
	case <-p.done:
		return SubmitResult{}, ErrClosed
	case <-ctx.Done():
		return SubmitResult{}, ctx.Err()
	}
}

// settle runs on the loop when an in-flight submission completes
func (p *Page) settle(outcome service.SubmissionOutcome) {
	p.afterEvent()
	result := SubmitResult{Outcome: outcome, Page: p.snapshot()}
	for _, w := range p.waiters {
		w <- result
	}
	p.waiters = nil
}

// Input handles an input or change event on a form field: its error is cleared
func (p *Page) Input(ctx context.Context, field string) error {
	if !isValidatedField(field) {
		return fmt.Errorf("%w %q", ErrUnknownField, field)
	}
	return p.call(ctx, func() {
		p.doc.ClearError(field)
	})
}

// ClickCTA tracks a click on a call-to-action button
func (p *Page) ClickCTA(ctx context.Context, location string) error {
	label := "cta_" + p.cleanLocation(location)
	return p.call(ctx, func() {
		p.sink.Track(p.ctx, domain.EventCTAClick, domain.Attributes{
			domain.AttrCategory: "engagement",
			domain.AttrLabel:    label,
		})
	})
}

// cleanLocation strips markup from a client-reported location
func (p *Page) cleanLocation(location string) string {
	cleaned := strings.TrimSpace(html.UnescapeString(p.sanitizer.Sanitize(location)))
	if cleaned == "" {
		return domain.DefaultCTALocation
	}
	if r := []rune(cleaned); len(r) > maxLocationLength {
		cleaned = string(r[:maxLocationLength])
	}
	return cleaned
}

// Scroll recomputes footer visibility for the reported scroll position
func (p *Page) Scroll(ctx context.Context, scrollY, viewportHeight int) (bool, error) {
	var visible bool
	err := p.call(ctx, func() {
		visible = p.updateFooter(scrollY, viewportHeight)
	})
	return visible, err
}

func (p *Page) updateFooter(scrollY, viewportHeight int) bool {
	formTop, ok := p.doc.FormSectionTop()
	if !ok {
		return p.doc.footerVisible
	}
	visible := service.FooterVisible(scrollY, viewportHeight, formTop)
	p.doc.SetFooterVisible(visible)
	return visible
}

// Anchor resolves a click on a link
func (p *Page) Anchor(ctx context.Context, href string) (service.AnchorResult, error) {
	var result service.AnchorResult
	err := p.call(ctx, func() {
		result = service.ResolveAnchor(href, p.doc.ElementOffset, p.scrollOffset)
	})
	return result, err
}

// Snapshot returns a copy of the current document
func (p *Page) Snapshot(ctx context.Context) (domain.PageSnapshot, error) {
	var snap domain.PageSnapshot
	err := p.call(ctx, func() {
		snap = p.snapshot()
	})
	return snap, err
}

func isValidatedField(field string) bool {
	for _, f := range domain.ValidatedFields {
		if f == field {
			return true
		}
	}
	return false
}
