package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// exactPath turns a route into a mux pattern that matches only that path
func exactPath(route string) string {
	if route == "/" {
		return "/{$}"
	}
	return route
}

func (s *Server) initRoutes() error {
	pages, err := s.parsePages()
	if err != nil {
		return err
	}

	// SESSION
	s.RegisterRouteHandler("GET "+RouteSignIn, ChainMiddleware(s.SignInPageHandler(pages.signIn), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignIn, ChainMiddleware(s.SignInSubmitHandler(pages.signIn), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware()...))

	// ACCOUNT CREATION
	s.RegisterRouteHandler("GET "+RouteSignUp, ChainMiddleware(s.SignUpPageHandler(pages.signUp), s.HTMLMiddleWare(s.RequireAnonymous())...))
	s.RegisterRouteHandler("POST "+RouteSignUp, ChainMiddleware(s.SignUpSubmitHandler(pages.signUp), s.HTMLMiddleWare(s.RequireAnonymous())...))
	s.RegisterRouteHandler("GET "+RouteWelcome, ChainMiddleware(s.WelcomePageHandler(pages.welcome), s.HTMLMiddleWare(s.RequireAnonymous())...))
	s.RegisterRouteHandler("POST "+RouteWelcome, ChainMiddleware(s.WelcomeSubmitHandler(pages.welcome), s.HTMLMiddleWare(s.RequireAnonymous())...))

	// ACCOUNT SETUP
	s.RegisterRouteHandler("GET "+RouteAccountSetup, ChainMiddleware(s.AccountSetupPageHandler(pages.accountSetup), s.HTMLMiddleWare(s.RequireAccountSession())...))
	s.RegisterRouteHandler("POST "+RouteAccountSetup, ChainMiddleware(s.AccountSetupSubmitHandler(pages.accountSetup), s.HTMLMiddleWare(s.RequireAccountSession())...))
	s.RegisterRouteHandler("GET "+RouteTaxRegimes, ChainMiddleware(s.TaxRegimesHandler(), s.APIMiddleware(s.RequireAccountSession())...))

	// DASHBOARD
	for _, page := range dashboardPages() {
		s.RegisterRouteHandler("GET "+exactPath(page.URL), ChainMiddleware(s.DashboardPageHandler(pages.dashboard, page), s.HTMLMiddleWare(s.RequireSession())...))
	}

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	return nil
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			log.Warn().Err(err).Str("path", filePath).Msg("static file not served")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
