package service

import (
	"net/url"

	"landing-v2/internal/domain"
)

// ExtractTrackingParams picks the allow-listed campaign parameters out of a
// page query string. Keys that are absent or empty are left out entirely.
func ExtractTrackingParams(query url.Values) domain.TrackingParams {
	params := make(domain.TrackingParams)
	for _, key := range domain.TrackingParamKeys {
		if value := query.Get(key); value != "" {
			params[key] = value
		}
	}
	return params
}
