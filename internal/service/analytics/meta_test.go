package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"landing-v2/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaTracker(t *testing.T) {
	var (
		path  string
		token string
		body  metaPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		token = r.URL.Query().Get("access_token")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"events_received":1}`))
	}))
	defer server.Close()

	tracker := NewMetaTracker(MetaConfig{
		PixelID:     "123456",
		AccessToken: "tok",
		Endpoint:    server.URL + "/",
		PageURL:     "https://lp.example.com/",
	})
	fixed := time.Date(2025, 2, 2, 2, 2, 2, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	sum := sha256.Sum256([]byte("session-1"))
	hashed := hex.EncodeToString(sum[:])

	t.Run("init sends PageView", func(t *testing.T) {
		require.NoError(t, tracker.Init(context.Background(), "session-1"))
		assert.Equal(t, "/123456/events", path)
		assert.Equal(t, "tok", token)
		require.Len(t, body.Data, 1)
		ev := body.Data[0]
		assert.Equal(t, "PageView", ev.EventName)
		assert.Equal(t, fixed.Unix(), ev.EventTime)
		assert.NotEmpty(t, ev.EventID)
		assert.Equal(t, "website", ev.ActionSource)
		assert.Equal(t, "https://lp.example.com/", ev.EventSourceURL)
		assert.Equal(t, []string{hashed}, ev.UserData.ExternalID)
	})

	t.Run("track reuses the event id", func(t *testing.T) {
		err := tracker.Track(context.Background(), domain.Event{
			ID:         "evt-42",
			Name:       domain.EventFormSubmit,
			ClientID:   "session-1",
			Attributes: domain.Attributes{domain.AttrCategory: "engagement", domain.AttrLabel: "newsletter_signup"},
			OccurredAt: fixed,
		})
		require.NoError(t, err)
		require.Len(t, body.Data, 1)
		ev := body.Data[0]
		assert.Equal(t, "FormSubmit", ev.EventName)
		assert.Equal(t, "evt-42", ev.EventID)
		assert.Equal(t, "newsletter_signup", ev.CustomData["event_label"])
	})
}

func TestMetaTracker_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	tracker := NewMetaTracker(MetaConfig{PixelID: "1", Endpoint: server.URL})
	err := tracker.Track(context.Background(), domain.Event{Name: domain.EventCTAClick})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversions api")
}

func TestUserData_EmptyClientID(t *testing.T) {
	assert.Empty(t, userData("").ExternalID)
}
