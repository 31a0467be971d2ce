// Package handler holds the HTTP handlers of the local OAuth callback server.
//
// FLOW:
// The identity provider finishes on the backend, which redirects the browser
// to {callback}/oauth2/redirect?token=... (or ?error=...). That request lands
// here. The handler passes the query to auth.RedirectHandler, reports the
// outcome to the browser as JSON and hands it to whoever is waiting on
// Outcomes().
package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/portfolio/internal/auth"
)

// Redirector turns callback query parameters into an outcome.
// *auth.RedirectHandler implements it.
type Redirector interface {
	Handle(query url.Values) auth.Outcome
}

// CallbackResponse is the success body.
type CallbackResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Navigate string `json:"navigate"`
	DelayMs  int64  `json:"delayMs"`
}

// CallbackHandler serves GET /oauth2/redirect.
type CallbackHandler struct {
	redirect Redirector
	outcomes chan auth.Outcome
	logger   *slog.Logger
}

// NewCallbackHandler creates the handler. Only the first outcome is kept for
// Outcomes(); later callbacks are still answered but not delivered.
func NewCallbackHandler(redirect Redirector, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		redirect: redirect,
		outcomes: make(chan auth.Outcome, 1),
		logger:   logger,
	}
}

// Outcomes delivers the first callback's outcome.
func (h *CallbackHandler) Outcomes() <-chan auth.Outcome {
	return h.outcomes
}

// HandleRedirect handles GET /oauth2/redirect.
func (h *CallbackHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	outcome := h.redirect.Handle(r.URL.Query())

	select {
	case h.outcomes <- outcome:
	default:
		h.logger.Warn("ignoring repeated oauth callback")
	}

	if outcome.Err != nil {
		writeError(w, outcome.Err)
		return
	}

	writeJSON(w, http.StatusOK, CallbackResponse{
		Status:   auth.StatusRedirecting,
		Message:  outcome.Message,
		Navigate: outcome.Navigate,
		DelayMs:  outcome.Delay.Milliseconds(),
	})
}
