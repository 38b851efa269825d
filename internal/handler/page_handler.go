package handler

import (
	"errors"
	"net/http"

	"landing-v2/internal/domain"
	"landing-v2/internal/middleware"
	"landing-v2/internal/page"
	"landing-v2/internal/service"
	apperrors "landing-v2/pkg/errors"
	"landing-v2/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// PageHandler exposes the page's UI events as a JSON API for the page script
type PageHandler struct {
	sessions Sessions
	logger   *logger.Logger
}

func NewPageHandler(sessions Sessions, logger *logger.Logger) *PageHandler {
	return &PageHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// SubmitResponse is the body of POST /api/submit
type SubmitResponse struct {
	Outcome  service.SubmissionOutcome `json:"outcome"`
	Redirect string                    `json:"redirect,omitempty"`
	Page     domain.PageSnapshot       `json:"page"`
}

type inputRequest struct {
	Field string `json:"field"`
}

type ctaRequest struct {
	Location string `json:"location"`
}

type scrollRequest struct {
	ScrollY        int `json:"scroll_y"`
	ViewportHeight int `json:"viewport_height"`
}

type scrollResponse struct {
	FooterVisible bool `json:"footer_visible"`
}

type anchorRequest struct {
	Href string `json:"href"`
}

// RegisterRoutes mounts the page API under r
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/page", h.Page)
	r.Post("/submit", h.Submit)
	r.Post("/input", h.Input)
	r.Post("/cta", h.CTA)
	r.Post("/scroll", h.Scroll)
	r.Post("/anchor", h.Anchor)
}

// page returns the session's loaded page or writes a 404
func (h *PageHandler) page(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	p, ok := h.sessions.Lookup(middleware.SessionID(r.Context()))
	if !ok {
		respondError(w, r, h.logger, apperrors.NewNotFoundError("No page loaded for this session"))
		return nil, false
	}
	return p, true
}

// Page handles GET /api/page
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	snap, err := p.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Submit handles POST /api/submit
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.FormInput
	if appErr := decodeJSON(w, r, &input); appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}

	p, ok := h.page(w, r)
	if !ok {
		return
	}

	result, err := p.Submit(r.Context(), input)
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}

	status := http.StatusOK
	switch result.Outcome {
	case service.OutcomeIgnored:
		status = http.StatusAccepted
	case service.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
	case service.OutcomeFailed:
		status = http.StatusBadGateway
	}

	respondJSON(w, status, SubmitResponse{
		Outcome:  result.Outcome,
		Redirect: result.Page.Redirect,
		Page:     result.Page,
	})
}

// Input handles POST /api/input
func (h *PageHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}

	p, ok := h.page(w, r)
	if !ok {
		return
	}

	if err := p.Input(r.Context(), req.Field); err != nil {
		if errors.Is(err, page.ErrUnknownField) {
			respondError(w, r, h.logger, apperrors.NewValidationError("Unknown form field", map[string]interface{}{"field": req.Field}))
			return
		}
		respondError(w, r, h.logger, pageError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CTA handles POST /api/cta
func (h *PageHandler) CTA(w http.ResponseWriter, r *http.Request) {
	var req ctaRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}

	p, ok := h.page(w, r)
	if !ok {
		return
	}

	if err := p.ClickCTA(r.Context(), req.Location); err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Scroll handles POST /api/scroll
func (h *PageHandler) Scroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}

	p, ok := h.page(w, r)
	if !ok {
		return
	}

	visible, err := p.Scroll(r.Context(), req.ScrollY, req.ViewportHeight)
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}
	respondJSON(w, http.StatusOK, scrollResponse{FooterVisible: visible})
}

// Anchor handles POST /api/anchor
func (h *PageHandler) Anchor(w http.ResponseWriter, r *http.Request) {
	var req anchorRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}

	p, ok := h.page(w, r)
	if !ok {
		return
	}

	result, err := p.Anchor(r.Context(), req.Href)
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
