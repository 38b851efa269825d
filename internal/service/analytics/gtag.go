package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"landing-v2/internal/domain"
)

// DefaultGAEndpoint is the GA4 Measurement Protocol collection URL
const DefaultGAEndpoint = "https://www.google-analytics.com/mp/collect"

type GtagConfig struct {
	MeasurementID string
	APISecret     string
	// Endpoint defaults to DefaultGAEndpoint
	Endpoint string
	Timeout  time.Duration
}

// GtagTracker sends events through the GA4 Measurement Protocol
type GtagTracker struct {
	collectURL string
	httpClient *http.Client
}

type gaPayload struct {
	ClientID        string    `json:"client_id"`
	TimestampMicros int64     `json:"timestamp_micros,omitempty"`
	Events          []gaEvent `json:"events"`
}

type gaEvent struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}

func NewGtagTracker(cfg GtagConfig) *GtagTracker {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGAEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	q := url.Values{}
	q.Set("measurement_id", cfg.MeasurementID)
	if cfg.APISecret != "" {
		q.Set("api_secret", cfg.APISecret)
	}

	return &GtagTracker{
		collectURL: endpoint + "?" + q.Encode(),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *GtagTracker) Name() string { return "gtag" }

// Init is the page's gtag('config', id): a page_view for the visitor
func (g *GtagTracker) Init(ctx context.Context, clientID string) error {
	return g.send(ctx, gaPayload{
		ClientID: clientID,
		Events:   []gaEvent{{Name: "page_view", Params: map[string]interface{}{}}},
	})
}

// Track is gtag('event', name, attrs)
func (g *GtagTracker) Track(ctx context.Context, event domain.Event) error {
	params := make(map[string]interface{}, len(event.Attributes))
	for k, v := range event.Attributes {
		params[k] = v
	}

	return g.send(ctx, gaPayload{
		ClientID:        event.ClientID,
		TimestampMicros: event.OccurredAt.UnixMicro(),
		Events:          []gaEvent{{Name: event.Name, Params: params}},
	})
}

func (g *GtagTracker) send(ctx context.Context, payload gaPayload) error {
	if err := postJSON(ctx, g.httpClient, g.collectURL, payload); err != nil {
		return fmt.Errorf("measurement protocol: %w", err)
	}
	return nil
}
