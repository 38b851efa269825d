package page

import (
	"net/url"

	"landing-v2/internal/domain"
)

// Layout is the vertical geometry of the rendered page
type Layout struct {
	// Offsets maps element ids to their top offset
	Offsets map[string]int
	// ViewportHeight is assumed until the visitor reports a scroll
	ViewportHeight int
}

// DefaultLayout places the hero at the top and the form section at formTop
func DefaultLayout(formTop int) Layout {
	return Layout{
		Offsets: map[string]int{
			"hero":                    0,
			"benefits":                formTop / 2,
			domain.ElementFormSection: formTop,
		},
		ViewportHeight: 800,
	}
}

// DefaultCTAButtons are the call-to-action links rendered on the landing page
func DefaultCTAButtons() []domain.CTAButton {
	return []domain.CTAButton{
		{Location: "hero", Href: "#" + domain.ElementFormSection, Label: "今すぐ無料で登録"},
		{Location: "benefits", Href: "#" + domain.ElementFormSection, Label: "特典を受け取る"},
		{Location: "footer", Href: "#" + domain.ElementFormSection, Label: "無料で登録する"},
	}
}

// Document is the in-memory state of one visitor's page. It implements the
// submission controller's surface and is only touched from its page loop.
type Document struct {
	sessionID     string
	query         url.Values
	values        domain.FormInput
	fieldErrors   map[string]string
	submit        domain.SubmitControl
	countdown     domain.CountdownDisplay
	footerVisible bool
	redirect      string
	gtmID         string
	fbPixelID     string
	ctaButtons    []domain.CTAButton
	layout        Layout
}

// NewDocument creates a freshly loaded page
func NewDocument(sessionID string, query url.Values, gtmID, fbPixelID string, layout Layout) *Document {
	if query == nil {
		query = url.Values{}
	}
	return &Document{
		sessionID:   sessionID,
		query:       query,
		fieldErrors: map[string]string{},
		submit:      domain.SubmitControl{Label: domain.DefaultSubmitLabel},
		countdown:   domain.CountdownDisplay{Hours: "00", Minutes: "00", Seconds: "00"},
		gtmID:       gtmID,
		fbPixelID:   fbPixelID,
		ctaButtons:  DefaultCTAButtons(),
		layout:      layout,
	}
}

// SetValues replaces what is typed into the form controls
func (d *Document) SetValues(input domain.FormInput) {
	d.values = input
}

func (d *Document) FormInput() domain.FormInput {
	return d.values
}

func (d *Document) Location() url.Values {
	return d.query
}

func (d *Document) ShowError(field, message string) {
	d.fieldErrors[field] = message
}

func (d *Document) ClearError(field string) {
	delete(d.fieldErrors, field)
}

// HasErrorClass reports whether field carries the error class
func (d *Document) HasErrorClass(field string) bool {
	_, ok := d.fieldErrors[field]
	return ok
}

// ErrorText returns the text of the field's error element
func (d *Document) ErrorText(field string) string {
	return d.fieldErrors[field]
}

func (d *Document) SubmitControl() domain.SubmitControl {
	return d.submit
}

func (d *Document) SetSubmitControl(control domain.SubmitControl) {
	d.submit = control
}

func (d *Document) Navigate(path string) {
	d.redirect = path
}

// Redirect is the destination the page navigated to, or ""
func (d *Document) Redirect() string {
	return d.redirect
}

func (d *Document) SetCountdown(display domain.CountdownDisplay) {
	d.countdown = display
}

func (d *Document) SetFooterVisible(visible bool) {
	d.footerVisible = visible
}

// ElementOffset implements the smooth scroll target lookup
func (d *Document) ElementOffset(id string) (int, bool) {
	top, ok := d.layout.Offsets[id]
	return top, ok
}

// FormSectionTop is the offset of the form section, zero when the page has none
func (d *Document) FormSectionTop() (int, bool) {
	return d.ElementOffset(domain.ElementFormSection)
}

// Snapshot copies the document for readers outside the page loop
func (d *Document) Snapshot(state domain.SubmissionState) domain.PageSnapshot {
	errs := make(map[string]string, len(d.fieldErrors))
	for k, v := range d.fieldErrors {
		errs[k] = v
	}
	buttons := make([]domain.CTAButton, len(d.ctaButtons))
	copy(buttons, d.ctaButtons)

	return domain.PageSnapshot{
		SessionID:     d.sessionID,
		State:         state,
		Values:        d.values,
		FieldErrors:   errs,
		Submit:        d.submit,
		Countdown:     d.countdown,
		FooterVisible: d.footerVisible,
		Redirect:      d.redirect,
		Query:         d.query.Encode(),
		GTMID:         d.gtmID,
		FBPixelID:     d.fbPixelID,
		CTAButtons:    buttons,
	}
}
