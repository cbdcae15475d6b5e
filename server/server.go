// Package server is the console's HTTP surface: the sign-in and account
// pages, the guarded dashboard shell, and the session status endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/internal/config"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/session"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	appName string
	mux     *http.ServeMux
	routes  []string
	store   *session.Store
	auth    *auth.Service
}

func New(config config.EnvConfig, store *session.Store, authService *auth.Service) (*Server, error) {
	if store == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Server New] session store is required")
	}
	if authService == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Server New] auth service is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		appName: config.GetAppName(),
		mux:     http.NewServeMux(),
		store:   store,
		auth:    authService,
	}

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise routes: %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// WatchSession logs each end of an authenticated session until ctx is done.
// Open pages notice it on their next /session poll.
func (s *Server) WatchSession(ctx context.Context) {
	signedOut, release := s.store.Subscribe()
	defer release()
	for {
		select {
		case <-ctx.Done():
			return
		case <-signedOut:
			log.Info().Uint64("generation", s.store.Generation()).Msg("session ended, pages will return to sign-in")
		}
	}
}

// Routes returns the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Msgf("[%s] %s", colourMethod(parts[0]), parts[1])
		} else {
			log.Debug().Msgf("[%s] %s", colourMethod(""), parts[0])
		}
	}
}
