package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"landing-v2/internal/page"
	"landing-v2/pkg/logger"
)

// Factory creates a freshly loaded page for a session
type Factory func(sessionID string, query url.Values) *page.Page

// Registry owns one page per visitor session
type Registry struct {
	factory     Factory
	idleTimeout time.Duration
	logger      *logger.Logger
	now         func() time.Time

	mu     sync.Mutex
	pages  map[string]*page.Page
	closed bool
}

func NewRegistry(factory Factory, idleTimeout time.Duration, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      log.Named("sessions"),
		now:         time.Now,
		pages:       make(map[string]*page.Page),
	}
}

// Acquire returns the session's page for an event that is not a page load,
// loading a fresh one when the session has none yet or its page already
// navigated away. created reports a fresh load.
func (r *Registry) Acquire(sessionID string, query url.Values) (p *page.Page, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, page.ErrClosed
	}

	existing, ok := r.pages[sessionID]
	if ok && !existing.Navigated() {
		return existing, false, nil
	}
	if ok {
		existing.Close()
	}

	p = r.factory(sessionID, query)
	r.pages[sessionID] = p
	r.logger.WithField("session_id", sessionID).Debug("Page loaded")
	return p, true, nil
}

// Load handles a full page load: every load gets a fresh page built from
// the request's query, and the session's previous page is closed. A page
// with a submission in flight is kept instead; created is false then.
func (r *Registry) Load(sessionID string, query url.Values) (p *page.Page, created bool, err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, false, page.ErrClosed
	}

	existing, ok := r.pages[sessionID]
	if ok && existing.Busy() {
		r.mu.Unlock()
		r.logger.WithField("session_id", sessionID).Debug("Reload during submission, keeping page")
		return existing, false, nil
	}

	p = r.factory(sessionID, query)
	r.pages[sessionID] = p
	r.mu.Unlock()

	if ok {
		existing.Close()
	}
	r.logger.WithField("session_id", sessionID).Debug("Page loaded")
	return p, true, nil
}

// Lookup returns the session's page without loading one
func (r *Registry) Lookup(sessionID string) (*page.Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[sessionID]
	return p, ok
}

// Len returns the number of live pages
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep closes pages idle for longer than the idle timeout. A page with a
// submission in flight is never evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []*page.Page
	for id, p := range r.pages {
		if p.Busy() || p.LastActive().After(cutoff) {
			continue
		}
		idle = append(idle, p)
		delete(r.pages, id)
	}
	r.mu.Unlock()

	for _, p := range idle {
		p.Close()
	}
	if len(idle) > 0 {
		r.logger.WithField("evicted", len(idle)).Debug("Evicted idle pages")
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close shuts down every page. Acquire fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	pages := r.pages
	r.pages = make(map[string]*page.Page)
	r.closed = true
	r.mu.Unlock()

	for _, p := range pages {
		p.Close()
	}
	r.logger.WithField("pages", len(pages)).Info("Session registry closed")
}
