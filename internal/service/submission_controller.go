package service

import (
	"context"
	"time"

	"landing-v2/internal/domain"
	"landing-v2/pkg/logger"
)

// SubmissionOutcome describes where one dispatched event left the form
type SubmissionOutcome int

const (
	// OutcomeInvalid: validation failed, errors are on the page
	OutcomeInvalid SubmissionOutcome = iota + 1
	// OutcomeIgnored: a submission was already in flight
	OutcomeIgnored
	// OutcomePending: the request was sent, completion follows asynchronously
	OutcomePending
	// OutcomeConverted: the endpoint accepted the submission and the page navigated away
	OutcomeConverted
	// OutcomeFailed: the endpoint failed, the form is usable again
	OutcomeFailed
)

func (o SubmissionOutcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeIgnored:
		return "ignored"
	case OutcomePending:
		return "pending"
	case OutcomeConverted:
		return "converted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome as its name in JSON
func (o SubmissionOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Terminal reports whether no further event for the same submission will follow
func (o SubmissionOutcome) Terminal() bool {
	return o != OutcomePending
}

type submissionEvent interface {
	isSubmissionEvent()
}

type submitRequested struct{}

type requestSucceeded struct{}

type requestFailed struct {
	err error
}

func (submitRequested) isSubmissionEvent()  {}
func (requestSucceeded) isSubmissionEvent() {}
func (requestFailed) isSubmissionEvent()    {}

// ControllerOptions wires a SubmissionController to its page
type ControllerOptions struct {
	Surface          Surface
	Sink             Sink
	Subscriber       Subscriber
	Scheduler        Scheduler
	Logger           *logger.Logger
	ConfirmationPath string
	// Timeout bounds the subscribe request; zero waits for as long as the request takes
	Timeout time.Duration
	// Now defaults to time.Now
	Now func() time.Time
	// OnSettled is called on the owning goroutine when an in-flight submission completes
	OnSettled func(SubmissionOutcome)
}

// SubmissionController owns the submission state of one subscription form.
// It is not safe for concurrent use: every method, and every function it
// posts to its Scheduler, must run on the single goroutine that owns the page.
type SubmissionController struct {
	surface          Surface
	sink             Sink
	subscriber       Subscriber
	scheduler        Scheduler
	logger           *logger.Logger
	confirmationPath string
	timeout          time.Duration
	now              func() time.Time
	onSettled        func(SubmissionOutcome)

	state         domain.SubmissionState
	originalLabel string
}

// NewSubmissionController creates an Idle controller
func NewSubmissionController(opts ControllerOptions) *SubmissionController {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ConfirmationPath == "" {
		opts.ConfirmationPath = "/thanks.html"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &SubmissionController{
		surface:          opts.Surface,
		sink:             opts.Sink,
		subscriber:       opts.Subscriber,
		scheduler:        opts.Scheduler,
		logger:           opts.Logger,
		confirmationPath: opts.ConfirmationPath,
		timeout:          opts.Timeout,
		now:              opts.Now,
		onSettled:        opts.OnSettled,
		state:            domain.Idle,
	}
}

// State returns the current submission state
func (c *SubmissionController) State() domain.SubmissionState {
	return c.state
}

// Submit handles a submit request from the form
func (c *SubmissionController) Submit(ctx context.Context) SubmissionOutcome {
	return c.dispatch(ctx, submitRequested{})
}

// dispatch is the transition table. Every state change goes through here.
func (c *SubmissionController) dispatch(ctx context.Context, ev submissionEvent) SubmissionOutcome {
	switch c.state {
	case domain.Idle:
		if _, ok := ev.(submitRequested); ok {
			return c.beginSubmission(ctx)
		}

	case domain.Submitting:
		switch ev := ev.(type) {
		case submitRequested:
			c.logger.Debug("Submission already in flight, ignoring submit")
			return OutcomeIgnored
		case requestSucceeded:
			return c.completeSuccess(ctx)
		case requestFailed:
			return c.completeFailure(ctx, ev.err)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"state": c.state.String(),
		"event": eventName(ev),
	}).Warn("Dropping submission event with no transition")
	return OutcomeIgnored
}

// beginSubmission covers the Idle rows: clear, validate, then either show
// errors or go to Submitting
func (c *SubmissionController) beginSubmission(ctx context.Context) SubmissionOutcome {
	for _, field := range domain.ValidatedFields {
		c.surface.ClearError(field)
	}

	raw := c.surface.FormInput()
	input := domain.FormInput{
		Email:        TrimInput(raw.Email),
		Name:         TrimInput(raw.Name),
		ConsentGiven: raw.ConsentGiven,
	}

	result := Validate(input)
	if result.HasError() {
		for _, field := range result.Errors() {
			c.surface.ShowError(field.Field, field.Message)
		}
		c.logger.WithField("invalid_fields", len(result.Errors())).Debug("Submission blocked by validation")
		return OutcomeInvalid
	}

	payload := domain.SubmissionPayload{
		Email:     input.Email,
		Name:      input.Name,
		Tracking:  ExtractTrackingParams(c.surface.Location()),
		Timestamp: c.now(),
	}

	c.state = domain.Submitting
	c.originalLabel = c.surface.SubmitControl().Label
	c.surface.SetSubmitControl(domain.SubmitControl{
		Disabled: true,
		Loading:  true,
		Label:    domain.MsgSubmitBusy,
	})

	c.sink.Track(ctx, domain.EventFormSubmit, domain.Attributes{
		domain.AttrCategory: "engagement",
		domain.AttrLabel:    "newsletter_signup",
	})

	c.send(ctx, payload)
	return OutcomePending
}

// send runs the request off the owning goroutine and posts its completion back.
// The request is detached from ctx: once sent it runs to completion.
func (c *SubmissionController) send(ctx context.Context, payload domain.SubmissionPayload) {
	detached := context.WithoutCancel(ctx)

	go func() {
		reqCtx, cancel := detached, context.CancelFunc(func() {})
		if c.timeout > 0 {
			reqCtx, cancel = context.WithTimeout(detached, c.timeout)
		}
		err := c.subscriber.Subscribe(reqCtx, payload)
		cancel()

		c.scheduler.Post(func() {
			var ev submissionEvent = requestSucceeded{}
			if err != nil {
				ev = requestFailed{err: err}
			}
			outcome := c.dispatch(detached, ev)
			if c.onSettled != nil {
				c.onSettled(outcome)
			}
		})
	}()
}

func (c *SubmissionController) completeSuccess(ctx context.Context) SubmissionOutcome {
	c.state = domain.Idle

	c.sink.Track(ctx, domain.EventConversion, domain.Attributes{
		domain.AttrCategory: "conversion",
		domain.AttrLabel:    "newsletter_signup_success",
		domain.AttrValue:    1,
	})

	c.surface.Navigate(c.confirmationPath)
	c.logger.Info("Submission converted")
	return OutcomeConverted
}

func (c *SubmissionController) completeFailure(ctx context.Context, err error) SubmissionOutcome {
	c.logger.WithError(err).Warn("Form submission error")

	c.surface.ShowError(domain.FieldEmail, domain.MsgSubmitFailed)

	c.sink.Track(ctx, domain.EventFormError, domain.Attributes{
		domain.AttrCategory: "error",
		domain.AttrLabel:    "newsletter_signup_error",
	})

	c.state = domain.Idle
	c.surface.SetSubmitControl(domain.SubmitControl{Label: c.originalLabel})
	return OutcomeFailed
}

func eventName(ev submissionEvent) string {
	switch ev.(type) {
	case submitRequested:
		return "submit_requested"
	case requestSucceeded:
		return "request_succeeded"
	case requestFailed:
		return "request_failed"
	default:
		return "unknown"
	}
}
