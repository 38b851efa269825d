package service

import (
	"strings"

	"landing-v2/internal/domain"
)

// DefaultScrollOffset keeps anchor targets clear of the page header
const DefaultScrollOffset = 80

// AnchorResult is what an anchor click resolves to
type AnchorResult struct {
	// PreventDefault is set for every in-page href, found or not
	PreventDefault bool                  `json:"prevent_default"`
	Scroll         *domain.ScrollCommand `json:"scroll,omitempty"`
}

// ElementOffset looks up the top offset of an element by id
type ElementOffset func(id string) (int, bool)

// ResolveAnchor handles a click on a link with href. Only "#id" links are
// intercepted; a missing target still cancels the jump but scrolls nowhere.
func ResolveAnchor(href string, offsetOf ElementOffset, offset int) AnchorResult {
	if !strings.HasPrefix(href, "#") {
		return AnchorResult{}
	}

	result := AnchorResult{PreventDefault: true}
	top, ok := offsetOf(strings.TrimPrefix(href, "#"))
	if !ok {
		return result
	}

	result.Scroll = &domain.ScrollCommand{
		Top:      top - offset,
		Behavior: domain.SmoothScrollBehavior,
	}
	return result
}
