package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

const partialsTemplate = "partials.html"

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"fieldError": func(errs map[string]string, field string) string {
		return errs[field]
	},
	"isActive": func(current, url string) bool {
		return current == url
	},
}

// ParseTemplate parses a page together with the shared partials
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), name, partialsTemplate)
}

type pageTemplates struct {
	signIn       *template.Template
	signUp       *template.Template
	welcome      *template.Template
	accountSetup *template.Template
	dashboard    *template.Template
}

func (s *Server) parsePages() (*pageTemplates, error) {
	var pages pageTemplates
	for name, dst := range map[string]**template.Template{
		"sign_in.html":       &pages.signIn,
		"sign_up.html":       &pages.signUp,
		"welcome.html":       &pages.welcome,
		"account_setup.html": &pages.accountSetup,
		"dashboard.html":     &pages.dashboard,
	} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = tmpl
	}
	return &pages, nil
}
