package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"landing-v2/internal/domain"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"
)

// maxErrorBody bounds how much of a failed response is kept for logging
const maxErrorBody = 1 << 10

// SubscribeClient posts submissions to the subscribe endpoint
type SubscribeClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewSubscribeClient creates a client for endpoint. A zero timeout means the
// request may wait indefinitely.
func NewSubscribeClient(endpoint string, timeout time.Duration, logger *logger.Logger) *SubscribeClient {
	return &SubscribeClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Subscribe sends payload as JSON. Any non-2xx status or transport failure is
// returned as an external AppError.
func (c *SubscribeClient) Subscribe(ctx context.Context, payload domain.SubmissionPayload) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return apperrors.NewInternalError("failed to create subscribe request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("failed to call subscribe endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := apperrors.NewExternalError("subscribe endpoint rejected submission",
			fmt.Errorf("subscribe endpoint returned status %d: %s", resp.StatusCode, string(body)))
		appErr.Details = map[string]interface{}{"status_code": resp.StatusCode}
		return appErr
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.WithFields(map[string]interface{}{
		"status_code":   resp.StatusCode,
		"duration_ms":   time.Since(start).Milliseconds(),
		"tracking_keys": len(payload.Tracking),
	}).Debug("Submission accepted by subscribe endpoint")

	return nil
}
