package server

import (
	"net/http"

	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/users"
)

// PageData is the template model shared by every page
type PageData struct {
	AppName string
	Title   string
	Path    string
	Message string
	Error   string

	// Guard names the check the page script repeats while the page is open
	Guard string

	User       *users.User
	Navigation []NavGroup

	// Form state for re-rendering after a failed submission
	Form     map[string]string
	Errors   auth.ValidationErrors
	Redirect string
}

const (
	pageGuardProtected     = "protected"
	pageGuardAuthenticated = "authenticated"
)

func (s *Server) newPageData(r *http.Request, title string) PageData {
	q := r.URL.Query()
	return PageData{
		AppName: s.appName,
		Title:   title,
		Path:    r.URL.Path,
		Message: q.Get(queryMessage),
		Error:   q.Get(queryError),
		Form:    map[string]string{},
	}
}
