package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionState is the single-flight flag of a subscription form
type SubmissionState int

const (
	Idle SubmissionState = iota
	Submitting
)

func (s SubmissionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state as its name in JSON
func (s SubmissionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SubmissionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "submitting":
		*s = Submitting
	default:
		return fmt.Errorf("unknown submission state %q", text)
	}
	return nil
}

// FormInput is read fresh from the page at submission time
type FormInput struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ConsentGiven bool   `json:"consent"`
}

// TrackingParamKeys is the allow-list of query parameters forwarded with a submission
var TrackingParamKeys = []string{
	"campaign_id",
	"ad_set",
	"gclid",
	"fbclid",
	"utm_source",
	"utm_medium",
	"utm_campaign",
}

// TrackingParams holds the allow-listed query parameters present on the page URL.
// Absent keys are not present in the map.
type TrackingParams map[string]string

// TimestampLayout matches the ISO-8601 form browsers produce (UTC, milliseconds)
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// SubmissionPayload is the exact JSON body posted to the subscribe endpoint
type SubmissionPayload struct {
	Email     string
	Name      string
	Tracking  TrackingParams
	Timestamp time.Time
}

// MarshalJSON flattens tracking params next to the form fields
func (p SubmissionPayload) MarshalJSON() ([]byte, error) {
	body := make(map[string]string, len(p.Tracking)+3)
	for k, v := range p.Tracking {
		body[k] = v
	}
	body["email"] = p.Email
	body["name"] = p.Name
	body["timestamp"] = p.Timestamp.UTC().Format(TimestampLayout)
	return json.Marshal(body)
}
