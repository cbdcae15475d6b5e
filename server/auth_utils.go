package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/guard"
	"github.com/hazfactura/console/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	queryMessage = "message"
	queryError   = "error"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithMessage redirects with a notification for the next page
func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, message string) {
	redirectSuccess(w, r, withQuery(path, queryMessage, message))
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withQuery(path, queryError, errorMsg))
}

// withQuery adds key=value to path, keeping any query it already has
func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// isSessionLost reports whether err means the operator no longer holds a
// usable session, so the only way forward is signing in again
func isSessionLost(err error) bool {
	return errors.Is(err, errors.ErrUnauthorized) ||
		errors.Is(err, errors.ErrNotAuthenticated) ||
		errors.Is(err, errors.ErrNoSession) ||
		errors.Is(err, errors.ErrStaleRefresh)
}

// handleFlowError answers a failed account flow call. Validation errors are
// returned to the caller to render; a lost session goes to sign-in; any
// other failure becomes a notification on back.
func handleFlowError(w http.ResponseWriter, r *http.Request, err error, back, fallback string) {
	if isSessionLost(err) {
		log.Info().Str("request_id", RequestID(r.Context())).Msg("session lost during request")
		redirectSuccess(w, r, guard.SignInLocation(r.URL.RequestURI()))
		return
	}
	log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("account flow failed")
	redirectWithError(w, r, back, api.Message(err, fallback))
}

func render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
