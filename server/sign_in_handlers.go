package server

import (
	"html/template"
	"net/http"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/guard"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/users"
	"github.com/rs/zerolog/log"
)

const signInFailedMessage = "No fue posible iniciar sesión"

// SignInPageHandler displays the sign-in page (GET /sign-in)
func (s *Server) SignInPageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Iniciar sesión")
		data.Redirect = r.URL.Query().Get(guard.RedirectParam)
		render(w, tmpl, http.StatusOK, data)
	}
}

// SignInSubmitHandler processes the sign-in form (POST /sign-in)
func (s *Server) SignInSubmitHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := auth.SignInForm{
			Correo:   r.FormValue("correo"),
			Password: r.FormValue("password"),
		}
		redirect := r.FormValue(guard.RedirectParam)

		dest, err := s.auth.SignIn(r.Context(), form, redirect)
		if err != nil {
			var verrs auth.ValidationErrors
			if errors.As(err, &verrs) {
				data := s.newPageData(r, "Iniciar sesión")
				data.Form["correo"] = form.Correo
				data.Errors = verrs
				data.Redirect = redirect
				render(w, tmpl, http.StatusUnprocessableEntity, data)
				return
			}

			log.Info().Err(err).Str("request_id", RequestID(r.Context())).Msg("sign-in rejected")
			data := s.newPageData(r, "Iniciar sesión")
			data.Form["correo"] = form.Correo
			data.Error = api.Message(err, signInFailedMessage)
			data.Redirect = redirect
			render(w, tmpl, http.StatusUnauthorized, data)
			return
		}

		redirectSuccess(w, r, dest)
	}
}

// LogoutHandler ends the session and returns to sign-in (GET /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context()); err != nil {
			// Memory is already cleared; the stored record could not be removed
			log.Err(err).Str("request_id", RequestID(r.Context())).Msg("Logout: stored session not removed")
		}
		redirectSuccess(w, r, RouteSignIn)
	}
}

// SessionStatus is the body of GET /session
type SessionStatus struct {
	State         guard.State `json:"state"`
	Authenticated bool        `json:"authenticated"`
	Redirect      string      `json:"redirect,omitempty"`
	User          *users.User `json:"user,omitempty"`
}

// SessionStatusHandler reports the session and where the open page must go.
// The page script polls it so a session ended in the background (a 401 on
// refresh, expiry) still produces a hard redirect.
//
// Query: path is the page's location, guard is "protected" (default) or
// "authenticated".
func (s *Server) SessionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.currentSnapshot(r.Context())
		q := r.URL.Query()

		path := q.Get("path")
		if path == "" {
			path = RouteHome
		}
		var decision guard.Decision
		switch q.Get("guard") {
		case pageGuardAuthenticated:
			decision = guard.Authenticated(snap, path)
		default:
			decision = guard.Protected(snap, path)
		}

		writeJSON(w, http.StatusOK, SessionStatus{
			State:         guard.Classify(snap),
			Authenticated: snap.Authenticated(),
			Redirect:      decision.Redirect,
			User:          snap.User,
		})
	}
}
