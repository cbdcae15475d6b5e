package server

import (
	"context"
	"net/http"

	"github.com/hazfactura/console/guard"
	"github.com/hazfactura/console/session"
	"github.com/rs/zerolog/log"
)

type snapshotKey struct{}

// SnapshotFromContext returns the session snapshot a guard middleware
// evaluated for this request
func SnapshotFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotKey{}).(session.Snapshot)
	return snap, ok
}

// currentSnapshot expires a lapsed session before reading it
func (s *Server) currentSnapshot(ctx context.Context) session.Snapshot {
	s.store.ExpireIfNeeded(ctx)
	return s.store.Snapshot()
}

func (s *Server) guardWith(decide func(snap session.Snapshot, r *http.Request) guard.Decision) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			snap := s.currentSnapshot(r.Context())
			decision := decide(snap, r)
			if !decision.Allow {
				log.Debug().
					Str("request_id", RequestID(r.Context())).
					Str("path", r.URL.Path).
					Str("redirect", decision.Redirect).
					Msg("navigation redirected")
				redirectSuccess(w, r, decision.Redirect)
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), snapshotKey{}, snap)))
		}
	}
}

// RequireSession guards dashboard pages: a session is required and an admin
// must have completed the business profile
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return s.guardWith(func(snap session.Snapshot, r *http.Request) guard.Decision {
		return guard.Protected(snap, r.URL.RequestURI())
	})
}

// RequireAccountSession guards account setup, which only needs a session
func (s *Server) RequireAccountSession() func(http.HandlerFunc) http.HandlerFunc {
	return s.guardWith(func(snap session.Snapshot, r *http.Request) guard.Decision {
		return guard.Authenticated(snap, r.URL.RequestURI())
	})
}

// RequireAnonymous guards the account creation pages
func (s *Server) RequireAnonymous() func(http.HandlerFunc) http.HandlerFunc {
	return s.guardWith(func(snap session.Snapshot, _ *http.Request) guard.Decision {
		return guard.AnonymousOnly(snap)
	})
}
