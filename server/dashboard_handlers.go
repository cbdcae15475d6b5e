package server

import (
	"html/template"
	"net/http"
)

// DashboardPageHandler renders one dashboard shell page
func (s *Server) DashboardPageHandler(tmpl *template.Template, page NavItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, page.Title)
		data.Guard = pageGuardProtected
		data.Navigation = Navigation
		if snap, ok := SnapshotFromContext(r.Context()); ok {
			data.User = snap.User
		}
		render(w, tmpl, http.StatusOK, data)
	}
}
