package service

import (
	"context"
	"net/url"

	"landing-v2/internal/domain"
)

// Surface is the page the submission controller reads from and writes to
type Surface interface {
	// FormInput returns the current, untrimmed values of the form controls
	FormInput() domain.FormInput

	// Location returns the query string of the page URL
	Location() url.Values

	// ShowError displays message next to field and marks the field as errored
	ShowError(field, message string)

	// ClearError removes a field's message and errored mark; no-op when already clear
	ClearError(field string)

	// SubmitControl returns the current submit button state
	SubmitControl() domain.SubmitControl

	// SetSubmitControl replaces the submit button state
	SetSubmitControl(control domain.SubmitControl)

	// Navigate leaves the page for path
	Navigate(path string)
}

// Sink receives named analytics events. Implementations never fail the caller.
type Sink interface {
	Track(ctx context.Context, name string, attrs domain.Attributes)
}

// Subscriber delivers a submission to the remote subscribe endpoint
type Subscriber interface {
	Subscribe(ctx context.Context, payload domain.SubmissionPayload) error
}

// Scheduler runs fn on the goroutine that owns the controller
type Scheduler interface {
	Post(fn func())
}
