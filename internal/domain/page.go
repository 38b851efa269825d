package domain

// Element identifiers of the landing page
const (
	ElementEmail        = "email"
	ElementName         = "name"
	ElementConsent      = "consent"
	ElementSubmitButton = "submit-button"
	ElementForm         = "subscription-form"
	ElementFixedFooter  = "fixed-footer"
	ElementFormSection  = "form"
	ElementHours        = "hours"
	ElementMinutes      = "minutes"
	ElementSeconds      = "seconds"
)

// CSS classes toggled by the runtime
const (
	ClassError   = "error"
	ClassLoading = "loading"
	ClassVisible = "visible"
)

// CTA buttons are selected by data-event="cta-click"; data-location names them
const (
	CTAEventAttribute  = "cta-click"
	DefaultCTALocation = "unknown"
)

const (
	DefaultSubmitLabel   = "無料で登録する"
	SmoothScrollBehavior = "smooth"
)

// ErrorElementID returns the id of the element that displays a field's error
func ErrorElementID(field string) string {
	return field + "-error"
}

// SubmitControl is the state of the submit button
type SubmitControl struct {
	Disabled bool   `json:"disabled"`
	Loading  bool   `json:"loading"`
	Label    string `json:"label"`
}

// CountdownDisplay is the rendered countdown, each part zero-padded to two digits
type CountdownDisplay struct {
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
}

// ScrollCommand asks the window to scroll to Top
type ScrollCommand struct {
	Top      int    `json:"top"`
	Behavior string `json:"behavior"`
}

// CTAButton is a call-to-action element tracked on click
type CTAButton struct {
	Location string `json:"location"`
	Href     string `json:"href"`
	Label    string `json:"label"`
}

// PageSnapshot is a read-only copy of a page document
type PageSnapshot struct {
	SessionID     string            `json:"session_id"`
	State         SubmissionState   `json:"state"`
	Values        FormInput         `json:"values"`
	FieldErrors   map[string]string `json:"field_errors"`
	Submit        SubmitControl     `json:"submit"`
	Countdown     CountdownDisplay  `json:"countdown"`
	FooterVisible bool              `json:"footer_visible"`
	Redirect      string            `json:"redirect,omitempty"`
	Query         string            `json:"query,omitempty"`
	GTMID         string            `json:"gtm_id"`
	FBPixelID     string            `json:"fb_pixel_id"`
	CTAButtons    []CTAButton       `json:"cta_buttons"`
}
