package page

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"landing-v2/internal/domain"
	"landing-v2/internal/service"
	"landing-v2/internal/service/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu          sync.Mutex
	initialized []string
	events      []string
	labels      []string
}

func (s *recordingSink) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = append(s.initialized, analytics.ClientIDFromContext(ctx))
	s.events = append(s.events, "init")
}

func (s *recordingSink) Track(_ context.Context, name string, attrs domain.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
	s.labels = append(s.labels, attrs.Label())
}

func (s *recordingSink) snapshot() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...), append([]string(nil), s.labels...)
}

type funcSubscriber struct {
	calls atomic.Int32
	fn    func(ctx context.Context, payload domain.SubmissionPayload) error
}

func (f *funcSubscriber) Subscribe(ctx context.Context, payload domain.SubmissionPayload) error {
	f.calls.Add(1)
	return f.fn(ctx, payload)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var start = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func newTestPage(t *testing.T, sub service.Subscriber, query string) (*Page, *recordingSink, *fakeClock) {
	t.Helper()
	q, err := url.ParseQuery(query)
	require.NoError(t, err)

	sink := &recordingSink{}
	clock := &fakeClock{now: start}
	p := New(Options{
		SessionID:        "session-1",
		Query:            q,
		GTMID:            "GTM-XXXXXXX",
		FBPixelID:        "XXXXXXXXXX",
		Layout:           DefaultLayout(1800),
		ScrollOffset:     service.DefaultScrollOffset,
		ConfirmationPath: "/thanks.html",
		Sink:             sink,
		Subscriber:       sub,
		Now:              clock.Now,
		TickInterval:     10 * time.Millisecond,
	})
	t.Cleanup(p.Close)
	return p, sink, clock
}

func succeed(context.Context, domain.SubmissionPayload) error { return nil }

func TestPage_InitializationOrder(t *testing.T) {
	p, sink, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)

	events, labels := sink.snapshot()
	assert.Equal(t, []string{"init", domain.EventPageLoad}, events)
	assert.Equal(t, []string{"landing_page_view"}, labels)
	assert.Equal(t, []string{"session-1"}, sink.initialized)

	// viewport bottom at 800 is above the form section at 1800
	assert.True(t, snap.FooterVisible)
	assert.Equal(t, domain.Idle, snap.State)
	assert.Equal(t, domain.DefaultSubmitLabel, snap.Submit.Label)
	assert.Equal(t, "GTM-XXXXXXX", snap.GTMID)
	assert.Len(t, snap.CTAButtons, 3)
}

func TestPage_CountdownTicks(t *testing.T) {
	p, _, clock := newTestPage(t, &funcSubscriber{fn: succeed}, "")

	clock.Set(start.Add(90 * time.Minute))
	assert.Eventually(t, func() bool {
		snap, err := p.Snapshot(context.Background())
		return err == nil && snap.Countdown == domain.CountdownDisplay{Hours: "22", Minutes: "30", Seconds: "00"}
	}, 2*time.Second, 10*time.Millisecond)

	clock.Set(start.Add(24*time.Hour + time.Millisecond))
	assert.Eventually(t, func() bool {
		snap, err := p.Snapshot(context.Background())
		return err == nil && snap.Countdown == domain.CountdownDisplay{Hours: "00", Minutes: "00", Seconds: "00"}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPage_SubmitSuccess(t *testing.T) {
	var got domain.SubmissionPayload
	sub := &funcSubscriber{fn: func(_ context.Context, payload domain.SubmissionPayload) error {
		got = payload
		return nil
	}}
	p, sink, _ := newTestPage(t, sub, "utm_campaign=summer&foo=bar")

	result, err := p.Submit(context.Background(), domain.FormInput{Email: "a@b.com", Name: "Hanako", ConsentGiven: true})
	require.NoError(t, err)

	assert.Equal(t, service.OutcomeConverted, result.Outcome)
	assert.Equal(t, "/thanks.html", result.Page.Redirect)
	assert.Equal(t, domain.TrackingParams{"utm_campaign": "summer"}, got.Tracking)
	assert.Equal(t, start, got.Timestamp)
	assert.True(t, p.Navigated())
	assert.False(t, p.Busy())

	events, _ := sink.snapshot()
	assert.Equal(t, []string{"init", domain.EventPageLoad, domain.EventFormSubmit, domain.EventConversion}, events)
}

func TestPage_SubmitInvalid(t *testing.T) {
	sub := &funcSubscriber{fn: succeed}
	p, sink, _ := newTestPage(t, sub, "")

	result, err := p.Submit(context.Background(), domain.FormInput{Email: "not-an-email"})
	require.NoError(t, err)

	assert.Equal(t, service.OutcomeInvalid, result.Outcome)
	assert.Equal(t, map[string]string{
		domain.FieldEmail:   domain.MsgEmailInvalid,
		domain.FieldConsent: domain.MsgConsentMissing,
	}, result.Page.FieldErrors)
	assert.Equal(t, "not-an-email", result.Page.Values.Email)
	assert.Zero(t, sub.calls.Load())

	events, _ := sink.snapshot()
	assert.NotContains(t, events, domain.EventFormSubmit)
}

func TestPage_SubmitFailure(t *testing.T) {
	sub := &funcSubscriber{fn: func(context.Context, domain.SubmissionPayload) error {
		return errors.New("status 500")
	}}
	p, sink, _ := newTestPage(t, sub, "")

	result, err := p.Submit(context.Background(), domain.FormInput{Email: "a@b.com", ConsentGiven: true})
	require.NoError(t, err)

	assert.Equal(t, service.OutcomeFailed, result.Outcome)
	assert.Equal(t, domain.MsgSubmitFailed, result.Page.FieldErrors[domain.FieldEmail])
	assert.Equal(t, domain.SubmitControl{Label: domain.DefaultSubmitLabel}, result.Page.Submit)
	assert.Equal(t, domain.Idle, result.Page.State)
	assert.Empty(t, result.Page.Redirect)
	assert.False(t, p.Navigated())

	events, labels := sink.snapshot()
	assert.Equal(t, domain.EventFormError, events[len(events)-1])
	assert.Equal(t, "newsletter_signup_error", labels[len(labels)-1])
}

func TestPage_ReentrantSubmit(t *testing.T) {
	release := make(chan struct{})
	sub := &funcSubscriber{fn: func(ctx context.Context, _ domain.SubmissionPayload) error {
		<-release
		return nil
	}}
	p, _, _ := newTestPage(t, sub, "")
	input := domain.FormInput{Email: "a@b.com", ConsentGiven: true}

	first := make(chan SubmitResult, 1)
	go func() {
		result, err := p.Submit(context.Background(), input)
		assert.NoError(t, err)
		first <- result
	}()

	require.Eventually(t, p.Busy, 2*time.Second, 5*time.Millisecond)

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SubmitControl{Disabled: true, Loading: true, Label: domain.MsgSubmitBusy}, snap.Submit)

	second, err := p.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeIgnored, second.Outcome)
	assert.Empty(t, second.Page.FieldErrors)

	close(release)
	select {
	case result := <-first:
		assert.Equal(t, service.OutcomeConverted, result.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("first submit never settled")
	}
	assert.EqualValues(t, 1, sub.calls.Load())
}

func TestPage_SubmitCallerGivesUp(t *testing.T) {
	release := make(chan struct{})
	sub := &funcSubscriber{fn: func(context.Context, domain.SubmissionPayload) error {
		<-release
		return nil
	}}
	p, _, _ := newTestPage(t, sub, "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Submit(ctx, domain.FormInput{Email: "a@b.com", ConsentGiven: true})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The request still completes and the page still converts
	close(release)
	assert.Eventually(t, p.Navigated, 2*time.Second, 5*time.Millisecond)
}

func TestPage_InputClearsError(t *testing.T) {
	p, _, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")
	ctx := context.Background()

	_, err := p.Submit(ctx, domain.FormInput{})
	require.NoError(t, err)

	require.NoError(t, p.Input(ctx, domain.FieldEmail))
	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{domain.FieldConsent: domain.MsgConsentMissing}, snap.FieldErrors)

	// clearing twice changes nothing
	require.NoError(t, p.Input(ctx, domain.FieldEmail))
	again, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.FieldErrors, again.FieldErrors)

	assert.Error(t, p.Input(ctx, "password"))
}

func TestPage_ClickCTA(t *testing.T) {
	p, sink, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")
	ctx := context.Background()

	tests := []struct {
		location string
		want     string
	}{
		{location: "hero", want: "cta_hero"},
		{location: "", want: "cta_unknown"},
		{location: "  ", want: "cta_unknown"},
		{location: "<b>footer</b>", want: "cta_footer"},
		{location: "<script>alert(1)</script>", want: "cta_unknown"},
	}

	for _, tt := range tests {
		require.NoError(t, p.ClickCTA(ctx, tt.location))
		events, labels := sink.snapshot()
		assert.Equal(t, domain.EventCTAClick, events[len(events)-1])
		assert.Equal(t, tt.want, labels[len(labels)-1], tt.location)
	}
}

func TestPage_Scroll(t *testing.T) {
	p, _, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")
	ctx := context.Background()

	visible, err := p.Scroll(ctx, 1200, 800)
	require.NoError(t, err)
	assert.False(t, visible)

	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.FooterVisible)

	visible, err = p.Scroll(ctx, 100, 800)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestPage_Anchor(t *testing.T) {
	p, _, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")

	result, err := p.Anchor(context.Background(), "#form")
	require.NoError(t, err)
	assert.True(t, result.PreventDefault)
	require.NotNil(t, result.Scroll)
	assert.Equal(t, domain.ScrollCommand{Top: 1720, Behavior: "smooth"}, *result.Scroll)

	result, err = p.Anchor(context.Background(), "/privacy")
	require.NoError(t, err)
	assert.Equal(t, service.AnchorResult{}, result)
}

func TestPage_Closed(t *testing.T) {
	p, _, _ := newTestPage(t, &funcSubscriber{fn: succeed}, "")
	p.Close()

	_, err := p.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = p.Submit(context.Background(), domain.FormInput{})
	assert.ErrorIs(t, err, ErrClosed)
}
