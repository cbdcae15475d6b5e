package server

import (
	"html/template"
	"net/http"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/internal/errors"
	"github.com/rs/zerolog/log"
)

// SignUpPageHandler renders the free-trial page (GET /prueba-gratis)
func (s *Server) SignUpPageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, http.StatusOK, s.newPageData(r, "Prueba gratis"))
	}
}

// SignUpSubmitHandler requests the trial account (POST /prueba-gratis)
func (s *Server) SignUpSubmitHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := auth.SignUpForm{
			Nombre:    r.FormValue("nombre"),
			Apellidos: r.FormValue("apellidos"),
			Correo:    r.FormValue("correo"),
			Terms:     r.FormValue("terms") != "",
		}
		msg, err := s.auth.SignUp(r.Context(), form)
		if err != nil {
			var verrs auth.ValidationErrors
			if errors.As(err, &verrs) {
				data := s.newPageData(r, "Prueba gratis")
				data.Form["nombre"] = form.Nombre
				data.Form["apellidos"] = form.Apellidos
				data.Form["correo"] = form.Correo
				data.Errors = verrs
				render(w, tmpl, http.StatusUnprocessableEntity, data)
				return
			}
			handleFlowError(w, r, err, RouteSignUp, "No fue posible crear tu cuenta")
			return
		}

		if msg == "" {
			msg = "Te enviamos un correo para activar tu cuenta"
		}
		redirectWithMessage(w, r, RouteSignIn, msg)
	}
}

// WelcomePageHandler renders activation from the welcome link (GET /bienvenido?token=)
func (s *Server) WelcomePageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Bienvenido")
		raw := r.URL.Query().Get("token")
		data.Form["token"] = raw

		claims, err := auth.WelcomeClaims(raw)
		if err != nil {
			data.Errors = auth.ValidationErrors{"token": auth.ActivationLinkMessage(err)}
			render(w, tmpl, http.StatusBadRequest, data)
			return
		}
		data.Form["nombre"] = claims.GivenName
		data.Form["email"] = claims.Email
		render(w, tmpl, http.StatusOK, data)
	}
}

// WelcomeSubmitHandler sets the account's first password (POST /bienvenido)
func (s *Server) WelcomeSubmitHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := auth.ActivationForm{
			Token:    r.FormValue("token"),
			Password: r.FormValue("password"),
			Confirm:  r.FormValue("confirm"),
		}
		msg, err := s.auth.Activate(r.Context(), form)
		if err != nil {
			var verrs auth.ValidationErrors
			if errors.As(err, &verrs) {
				data := s.newPageData(r, "Bienvenido")
				data.Form["token"] = form.Token
				data.Errors = verrs
				render(w, tmpl, http.StatusUnprocessableEntity, data)
				return
			}
			log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("activation failed")
			back := withQuery(RouteWelcome, "token", form.Token)
			redirectWithError(w, r, back, api.Message(err, "No fue posible activar tu cuenta"))
			return
		}

		if msg == "" {
			msg = "Tu cuenta está activa, inicia sesión"
		}
		redirectWithMessage(w, r, RouteSignIn, msg)
	}
}

// AccountSetupPageHandler renders the business profile form (GET /configurar-cuenta)
func (s *Server) AccountSetupPageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Configura tu cuenta")
		data.Guard = pageGuardAuthenticated
		if snap, ok := SnapshotFromContext(r.Context()); ok {
			data.User = snap.User
		}
		data.Form["tipo_persona"] = string(api.PersonaFisica)
		render(w, tmpl, http.StatusOK, data)
	}
}

// AccountSetupSubmitHandler registers the business (POST /configurar-cuenta)
func (s *Server) AccountSetupSubmitHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := auth.AccountForm{
			TipoPersona:   r.FormValue("tipo_persona"),
			RFC:           r.FormValue("rfc"),
			Nombre:        r.FormValue("nombre"),
			Phone:         r.FormValue("phone"),
			RegimenFiscal: r.FormValue("regimenFiscal"),
		}
		msg, err := s.auth.CompleteAccount(r.Context(), form)
		if err != nil {
			var verrs auth.ValidationErrors
			if errors.As(err, &verrs) {
				data := s.newPageData(r, "Configura tu cuenta")
				data.Guard = pageGuardAuthenticated
				if snap, ok := SnapshotFromContext(r.Context()); ok {
					data.User = snap.User
				}
				data.Form["tipo_persona"] = form.TipoPersona
				data.Form["rfc"] = form.RFC
				data.Form["nombre"] = form.Nombre
				data.Form["phone"] = form.Phone
				data.Form["regimenFiscal"] = form.RegimenFiscal
				data.Errors = verrs
				render(w, tmpl, http.StatusUnprocessableEntity, data)
				return
			}
			handleFlowError(w, r, err, RouteAccountSetup, "No fue posible registrar tu negocio")
			return
		}

		if msg == "" {
			msg = "Tu cuenta está lista"
		}
		redirectWithMessage(w, r, RouteHome, msg)
	}
}

// TaxRegimesHandler lists regimes for the chosen person type as JSON
// (GET /configurar-cuenta/regimenes?tipo=)
func (s *Server) TaxRegimesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regimes, err := s.auth.TaxRegimes(r.Context(), r.URL.Query().Get("tipo"))
		if err != nil {
			var verrs auth.ValidationErrors
			switch {
			case errors.As(err, &verrs):
				writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
			case isSessionLost(err):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"redirect": RouteSignIn})
			default:
				log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("tax regimes unavailable")
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": api.Message(err, "No fue posible cargar los regímenes fiscales")})
			}
			return
		}
		if regimes == nil {
			regimes = []api.TaxRegime{}
		}
		writeJSON(w, http.StatusOK, regimes)
	}
}
