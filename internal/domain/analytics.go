package domain

import "time"

// Named events emitted by the page
const (
	EventPageLoad   = "PageLoad"
	EventCTAClick   = "CTAClick"
	EventFormSubmit = "FormSubmit"
	EventConversion = "Conversion"
	EventFormError  = "FormError"
)

// Attribute keys
const (
	AttrCategory = "event_category"
	AttrLabel    = "event_label"
	AttrValue    = "value"
)

// Attributes are the free-form properties attached to an analytics event
type Attributes map[string]interface{}

// Category returns event_category or ""
func (a Attributes) Category() string {
	s, _ := a[AttrCategory].(string)
	return s
}

// Label returns event_label or ""
func (a Attributes) Label() string {
	s, _ := a[AttrLabel].(string)
	return s
}

// Value returns the numeric value attribute when present
func (a Attributes) Value() (float64, bool) {
	switch v := a[AttrValue].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Event is one tracked occurrence as handed to trackers
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ClientID identifies the visitor session the event came from
	ClientID   string     `json:"client_id,omitempty"`
	Attributes Attributes `json:"attributes"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// StoredEvent is the persisted shape of an analytics event. It never carries form fields.
type StoredEvent struct {
	ID         int64     `json:"id" db:"id"`
	EventID    string    `json:"event_id" db:"event_id"`
	Name       string    `json:"name" db:"name"`
	Category   string    `json:"category" db:"category"`
	Label      string    `json:"label" db:"label"`
	Value      *float64  `json:"value,omitempty" db:"value"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// EventCounts maps event names to counts
type EventCounts map[string]int64
