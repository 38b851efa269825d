package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"landing-v2/internal/domain"
	apperrors "landing-v2/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	input      domain.FormInput
	query      url.Values
	errors     map[string]string
	control    domain.SubmitControl
	navigated  []string
	showCalls  int
	clearCalls int
}

func newFakeSurface(input domain.FormInput, rawQuery string) *fakeSurface {
	query, _ := url.ParseQuery(rawQuery)
	return &fakeSurface{
		input:   input,
		query:   query,
		errors:  map[string]string{},
		control: domain.SubmitControl{Label: "登録する"},
	}
}

func (s *fakeSurface) FormInput() domain.FormInput { return s.input }
func (s *fakeSurface) Location() url.Values       { return s.query }

func (s *fakeSurface) ShowError(field, message string) {
	s.showCalls++
	s.errors[field] = message
}

func (s *fakeSurface) ClearError(field string) {
	s.clearCalls++
	delete(s.errors, field)
}

func (s *fakeSurface) SubmitControl() domain.SubmitControl        { return s.control }
func (s *fakeSurface) SetSubmitControl(control domain.SubmitControl) { s.control = control }
func (s *fakeSurface) Navigate(path string)                        { s.navigated = append(s.navigated, path) }

type trackedEvent struct {
	name  string
	attrs domain.Attributes
}

type recordingSink struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (s *recordingSink) Track(_ context.Context, name string, attrs domain.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, trackedEvent{name: name, attrs: attrs})
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.name)
	}
	return out
}

// stubSubscriber blocks each call until a result is pushed
type stubSubscriber struct {
	calls    atomic.Int32
	results  chan error
	payloads chan domain.SubmissionPayload
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{
		results:  make(chan error, 4),
		payloads: make(chan domain.SubmissionPayload, 4),
	}
}

func (s *stubSubscriber) Subscribe(ctx context.Context, payload domain.SubmissionPayload) error {
	s.calls.Add(1)
	s.payloads <- payload
	select {
	case err := <-s.results:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type queueScheduler struct {
	posted chan func()
}

func newQueueScheduler() *queueScheduler {
	return &queueScheduler{posted: make(chan func(), 4)}
}

func (q *queueScheduler) Post(fn func()) { q.posted <- fn }

func (q *queueScheduler) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.posted:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no completion was posted")
	}
}

type controllerFixture struct {
	surface    *fakeSurface
	sink       *recordingSink
	subscriber *stubSubscriber
	scheduler  *queueScheduler
	settled    []SubmissionOutcome
	controller *SubmissionController
}

func newControllerFixture(input domain.FormInput, rawQuery string) *controllerFixture {
	f := &controllerFixture{
		surface:    newFakeSurface(input, rawQuery),
		sink:       &recordingSink{},
		subscriber: newStubSubscriber(),
		scheduler:  newQueueScheduler(),
	}
	f.controller = NewSubmissionController(ControllerOptions{
		Surface:          f.surface,
		Sink:             f.sink,
		Subscriber:       f.subscriber,
		Scheduler:        f.scheduler,
		ConfirmationPath: "/thanks.html",
		Now: func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		},
		OnSettled: func(o SubmissionOutcome) { f.settled = append(f.settled, o) },
	})
	return f
}

func TestSubmissionController_SuccessRedirects(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: " a@b.com ", Name: " Taro ", ConsentGiven: true}, "utm_source=x&gclid=y&other=z")
	ctx := context.Background()

	outcome := f.controller.Submit(ctx)

	assert.Equal(t, OutcomePending, outcome)
	assert.Equal(t, domain.Submitting, f.controller.State())
	assert.Equal(t, domain.SubmitControl{Disabled: true, Loading: true, Label: domain.MsgSubmitBusy}, f.surface.control)
	assert.Equal(t, []string{domain.EventFormSubmit}, f.sink.names())

	payload := <-f.subscriber.payloads
	assert.Equal(t, domain.SubmissionPayload{
		Email:     "a@b.com",
		Name:      "Taro",
		Tracking:  domain.TrackingParams{"utm_source": "x", "gclid": "y"},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, payload)

	f.subscriber.results <- nil
	f.scheduler.runNext(t)

	assert.Equal(t, []SubmissionOutcome{OutcomeConverted}, f.settled)
	assert.Equal(t, domain.Idle, f.controller.State())
	assert.Equal(t, []string{"/thanks.html"}, f.surface.navigated)
	assert.Equal(t, []string{domain.EventFormSubmit, domain.EventConversion}, f.sink.names())
	assert.Equal(t, domain.Attributes{
		domain.AttrCategory: "conversion",
		domain.AttrLabel:    "newsletter_signup_success",
		domain.AttrValue:    1,
	}, f.sink.events[1].attrs)
	assert.EqualValues(t, 1, f.subscriber.calls.Load())
}

func TestSubmissionController_EmptyEmailBlocked(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "", ConsentGiven: true}, "")

	outcome := f.controller.Submit(context.Background())

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Equal(t, domain.Idle, f.controller.State())
	assert.Equal(t, map[string]string{domain.FieldEmail: domain.MsgEmailRequired}, f.surface.errors)
	assert.Empty(t, f.sink.names())
	assert.Zero(t, f.subscriber.calls.Load())
	assert.Equal(t, "登録する", f.surface.control.Label)
	assert.False(t, f.surface.control.Disabled)
}

func TestSubmissionController_WhitespaceEmailIsRequired(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "   ", ConsentGiven: false}, "")

	outcome := f.controller.Submit(context.Background())

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Equal(t, map[string]string{
		domain.FieldEmail:   domain.MsgEmailRequired,
		domain.FieldConsent: domain.MsgConsentMissing,
	}, f.surface.errors)
}

func TestSubmissionController_ByteOrderMarkIsTrimmed(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "\uFEFFa@b.com", Name: "\uFEFFTaro", ConsentGiven: true}, "")

	require.Equal(t, OutcomePending, f.controller.Submit(context.Background()))

	payload := <-f.subscriber.payloads
	assert.Equal(t, "a@b.com", payload.Email)
	assert.Equal(t, "Taro", payload.Name)
	assert.Empty(t, f.surface.errors)

	f.subscriber.results <- nil
	f.scheduler.runNext(t)
	assert.Equal(t, []SubmissionOutcome{OutcomeConverted}, f.settled)
}

func TestSubmissionController_ClearsPriorErrorsBeforeValidating(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "a@b.com", ConsentGiven: false}, "")
	f.surface.errors[domain.FieldEmail] = domain.MsgEmailInvalid

	outcome := f.controller.Submit(context.Background())

	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Equal(t, map[string]string{domain.FieldConsent: domain.MsgConsentMissing}, f.surface.errors)
}

func TestSubmissionController_ServerErrorReturnsToIdle(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "a@b.com", ConsentGiven: true}, "")
	ctx := context.Background()

	require.Equal(t, OutcomePending, f.controller.Submit(ctx))
	<-f.subscriber.payloads

	f.subscriber.results <- apperrors.NewExternalError("subscribe endpoint rejected submission", errors.New("status 500"))
	f.scheduler.runNext(t)

	assert.Equal(t, []SubmissionOutcome{OutcomeFailed}, f.settled)
	assert.Equal(t, domain.Idle, f.controller.State())
	assert.Equal(t, domain.MsgSubmitFailed, f.surface.errors[domain.FieldEmail])
	assert.Equal(t, domain.SubmitControl{Label: "登録する"}, f.surface.control)
	assert.Empty(t, f.surface.navigated)
	assert.Equal(t, []string{domain.EventFormSubmit, domain.EventFormError}, f.sink.names())
	assert.Equal(t, domain.Attributes{
		domain.AttrCategory: "error",
		domain.AttrLabel:    "newsletter_signup_error",
	}, f.sink.events[1].attrs)
}

func TestSubmissionController_ReentrantSubmitIgnored(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "a@b.com", ConsentGiven: true}, "")
	ctx := context.Background()

	require.Equal(t, OutcomePending, f.controller.Submit(ctx))
	<-f.subscriber.payloads

	// Even invalid input is not looked at while a submission is in flight
	f.surface.input = domain.FormInput{}
	showCalls := f.surface.showCalls

	for i := 0; i < 3; i++ {
		assert.Equal(t, OutcomeIgnored, f.controller.Submit(ctx))
	}

	assert.Equal(t, showCalls, f.surface.showCalls)
	assert.Equal(t, []string{domain.EventFormSubmit}, f.sink.names())
	assert.EqualValues(t, 1, f.subscriber.calls.Load())
	assert.Equal(t, domain.Submitting, f.controller.State())

	f.subscriber.results <- errors.New("connection reset")
	f.scheduler.runNext(t)
	assert.Equal(t, domain.Idle, f.controller.State())

	// A manual retry after failure goes out again
	f.surface.input = domain.FormInput{Email: "a@b.com", ConsentGiven: true}
	assert.Equal(t, OutcomePending, f.controller.Submit(ctx))
	<-f.subscriber.payloads
	assert.EqualValues(t, 2, f.subscriber.calls.Load())
	f.subscriber.results <- nil
	f.scheduler.runNext(t)
	assert.Equal(t, []SubmissionOutcome{OutcomeFailed, OutcomeConverted}, f.settled)
}

func TestSubmissionController_RequestOutlivesCallerContext(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "a@b.com", ConsentGiven: true}, "")
	ctx, cancel := context.WithCancel(context.Background())

	require.Equal(t, OutcomePending, f.controller.Submit(ctx))
	<-f.subscriber.payloads
	cancel()

	f.subscriber.results <- nil
	f.scheduler.runNext(t)
	assert.Equal(t, []SubmissionOutcome{OutcomeConverted}, f.settled)
}

func TestSubmissionController_TimeoutFailsSubmission(t *testing.T) {
	f := newControllerFixture(domain.FormInput{Email: "a@b.com", ConsentGiven: true}, "")
	f.controller.timeout = 20 * time.Millisecond

	require.Equal(t, OutcomePending, f.controller.Submit(context.Background()))
	f.scheduler.runNext(t)

	assert.Equal(t, []SubmissionOutcome{OutcomeFailed}, f.settled)
	assert.Equal(t, domain.MsgSubmitFailed, f.surface.errors[domain.FieldEmail])
}

func TestSubmissionOutcome_Terminal(t *testing.T) {
	assert.False(t, OutcomePending.Terminal())
	for _, o := range []SubmissionOutcome{OutcomeInvalid, OutcomeIgnored, OutcomeConverted, OutcomeFailed} {
		assert.True(t, o.Terminal(), o.String())
	}
}
