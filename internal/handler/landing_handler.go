package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"landing-v2/internal/domain"
	"landing-v2/internal/middleware"
	"landing-v2/internal/page"
	"landing-v2/internal/service"
	"landing-v2/pkg/logger"
)

// Sessions gives handlers the page behind a visitor session
type Sessions interface {
	Load(sessionID string, query url.Values) (*page.Page, bool, error)
	Acquire(sessionID string, query url.Values) (*page.Page, bool, error)
	Lookup(sessionID string) (*page.Page, bool)
}

// LandingHandler serves the HTML pages
type LandingHandler struct {
	sessions Sessions
	logger   *logger.Logger
}

func NewLandingHandler(sessions Sessions, logger *logger.Logger) *LandingHandler {
	return &LandingHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Landing handles GET /. Every GET is a new page load with its own query.
func (h *LandingHandler) Landing(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	p, created, err := h.sessions.Load(sessionID, r.URL.Query())
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}

	snap, err := p.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}

	if created {
		h.logger.WithField("session_id", sessionID).Debug("Landing page loaded")
	}
	h.renderLanding(w, r, http.StatusOK, snap)
}

// Subscribe handles POST /subscribe, the form posted without script
func (h *LandingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := domain.FormInput{
		Email:        r.PostFormValue(domain.ElementEmail),
		Name:         r.PostFormValue(domain.ElementName),
		ConsentGiven: r.PostFormValue(domain.ElementConsent) != "",
	}

	p, _, err := h.sessions.Acquire(middleware.SessionID(r.Context()), r.URL.Query())
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}

	result, err := p.Submit(r.Context(), input)
	if err != nil {
		respondError(w, r, h.logger, pageError(err))
		return
	}

	switch result.Outcome {
	case service.OutcomeConverted:
		http.Redirect(w, r, result.Page.Redirect, http.StatusSeeOther)
	case service.OutcomeIgnored:
		h.renderLanding(w, r, http.StatusAccepted, result.Page)
	case service.OutcomeInvalid:
		h.renderLanding(w, r, http.StatusUnprocessableEntity, result.Page)
	default:
		h.renderLanding(w, r, http.StatusBadGateway, result.Page)
	}
}

// Thanks handles GET /thanks.html
func (h *LandingHandler) Thanks(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := page.RenderThanks(&buf); err != nil {
		h.logger.WithError(err).Error("Failed to render thanks page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (h *LandingHandler) renderLanding(w http.ResponseWriter, r *http.Request, status int, snap domain.PageSnapshot) {
	var buf bytes.Buffer
	if err := page.RenderLanding(&buf, snap); err != nil {
		h.logger.WithError(err).WithField("request_id", middleware.GetRequestID(r.Context())).Error("Failed to render landing page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
