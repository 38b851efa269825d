package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"landing-v2/internal/domain"

	"github.com/google/uuid"
)

// DefaultMetaEndpoint is the Graph API base the Conversions API lives under
const DefaultMetaEndpoint = "https://graph.facebook.com/v19.0"

type MetaConfig struct {
	PixelID     string
	AccessToken string
	// Endpoint defaults to DefaultMetaEndpoint
	Endpoint string
	Timeout  time.Duration
	// PageURL is reported as event_source_url
	PageURL string
}

// MetaTracker sends events to the Meta Conversions API, the server side of fbq
type MetaTracker struct {
	eventsURL  string
	pageURL    string
	httpClient *http.Client
	now        func() time.Time
}

type metaPayload struct {
	Data []metaEvent `json:"data"`
}

type metaEvent struct {
	EventName      string                 `json:"event_name"`
	EventTime      int64                  `json:"event_time"`
	EventID        string                 `json:"event_id"`
	ActionSource   string                 `json:"action_source"`
	EventSourceURL string                 `json:"event_source_url,omitempty"`
	UserData       metaUserData           `json:"user_data"`
	CustomData     map[string]interface{} `json:"custom_data,omitempty"`
}

type metaUserData struct {
	ExternalID []string `json:"external_id,omitempty"`
}

func NewMetaTracker(cfg MetaConfig) *MetaTracker {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultMetaEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	eventsURL := fmt.Sprintf("%s/%s/events", endpoint, url.PathEscape(cfg.PixelID))
	if cfg.AccessToken != "" {
		eventsURL += "?" + url.Values{"access_token": {cfg.AccessToken}}.Encode()
	}

	return &MetaTracker{
		eventsURL:  eventsURL,
		pageURL:    cfg.PageURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (m *MetaTracker) Name() string { return "meta_pixel" }

// Init is the page's fbq('init') followed by fbq('track', 'PageView')
func (m *MetaTracker) Init(ctx context.Context, clientID string) error {
	return m.send(ctx, metaEvent{
		EventName: "PageView",
		EventTime: m.now().Unix(),
		EventID:   uuid.NewString(),
		UserData:  userData(clientID),
	})
}

// Track is fbq('track', name, attrs)
func (m *MetaTracker) Track(ctx context.Context, event domain.Event) error {
	custom := make(map[string]interface{}, len(event.Attributes))
	for k, v := range event.Attributes {
		custom[k] = v
	}

	return m.send(ctx, metaEvent{
		EventName:  event.Name,
		EventTime:  event.OccurredAt.Unix(),
		EventID:    event.ID,
		UserData:   userData(event.ClientID),
		CustomData: custom,
	})
}

func (m *MetaTracker) send(ctx context.Context, event metaEvent) error {
	event.ActionSource = "website"
	event.EventSourceURL = m.pageURL
	if err := postJSON(ctx, m.httpClient, m.eventsURL, metaPayload{Data: []metaEvent{event}}); err != nil {
		return fmt.Errorf("conversions api: %w", err)
	}
	return nil
}

// userData hashes the session id; the API expects external ids as SHA-256 hex
func userData(clientID string) metaUserData {
	if clientID == "" {
		return metaUserData{}
	}
	sum := sha256.Sum256([]byte(clientID))
	return metaUserData{ExternalID: []string{hex.EncodeToString(sum[:])}}
}
