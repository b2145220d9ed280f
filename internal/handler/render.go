// Package handler contains the HTTP handlers: HTML pages for the catalog and
// account flows, JSON endpoints for the saved list and the admin console.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (form values, JSON body, URL params)
//  2. Call the service layer
//  3. Write the response (rendered page, redirect, or JSON)
//
// Handlers hold no business rules. The messages a form shows come from the
// service as *apperror.AppError values.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/flash"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/service"
)

// Page names double as template file names under templates/.
const (
	PageIndex   = "index"
	PageSignup  = "signup"
	PageLogin   = "login"
	PageFeed    = "feed"
	PageSearch  = "search"
	PageSetting = "setting"
)

var pageTitles = map[string]string{
	PageIndex:   "Game List",
	PageSignup:  "Sign Up",
	PageLogin:   "Login",
	PageFeed:    "Feed",
	PageSearch:  "Search",
	PageSetting: "Setting",
}

// Page is the data every template receives. Render fills Title, User and
// Flashes; handlers fill whatever their page needs.
type Page struct {
	Title   string
	User    *model.User
	Flashes []string

	// Form state: submitted values (never passwords), per-field errors and
	// a form-level message.
	Form    map[string]string
	Errors  map[string]string
	Message string
	Next    string

	Landing *service.Landing
	Feed    *service.Feed
	Query   string
	Results []model.Game
}

// Renderer holds one parsed template set per page. Templates are parsed
// once at start-up; a bad template fails NewRenderer, not a request.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses base.html and partials.html together with each page
// template from fsys. Every page file fills the "content" block that
// base.html leaves open:
//
//	base.html:     {{define "base"}} ... {{template "content" .}} ... {{end}}
//	feed.html:     {{define "content"}} ... {{end}}
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageTitles)), logger: logger}

	for page := range pageTitles {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(fsys,
			"templates/base.html",
			"templates/partials.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

var templateFuncs = template.FuncMap{
	"date": func(g model.Game) string { return g.ReleaseDate.Format("Jan 2, 2006") },
}

// Render executes a page into a buffer first, so a template error becomes a
// clean 500 instead of half a page.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data Page) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.ServerError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	data.Title = pageTitles[page]
	data.User = auth.UserFromContext(r.Context())
	data.Flashes = flash.Pop(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.ServerError(w, r, fmt.Errorf("rendering %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.Debug("writing page", slog.String("page", page), slog.String("error", err.Error()))
	}
}

// ServerError logs err and answers with a bare 500.
func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rd.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
