// ABOUTME: Template loading and rendering for the dashboard pages
// ABOUTME: Pages are parsed once; the translation func is bound per request

package webui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "overview", "agents"}

// baseData is embedded in every page's data.
type baseData struct {
	Title     string
	Lang      string
	Languages []string
	CSRFToken string
	Operator  string
	Connected bool
	Flash     string
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		// Replaced per request in render.
		"t":        func(key string) string { return key },
		"join":     strings.Join,
		"localeOf": func(p view.Panel) string { return p.LocaleKey() },
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func (s *Server) base(r *http.Request, title string) baseData {
	return baseData{
		Title:     title,
		Lang:      s.language(r.Context()),
		Languages: s.catalogs.Languages(),
		CSRFToken: csrfToken(r),
		Operator:  auth.OperatorFromContext(r.Context()),
		Connected: s.opts.Status().Connected,
		Flash:     r.URL.Query().Get("flash"),
	}
}

func (s *Server) render(w http.ResponseWriter, page, lang string, data any) {
	tmpl, err := s.pages[page].Clone()
	if err != nil {
		s.logger.Error("failed to clone template", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	tmpl.Funcs(template.FuncMap{
		"t": func(key string) string { return s.catalogs.T(lang, key, key) },
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "page", page, "error", err)
	}
}

// relative formats t against the server clock.
func (s *Server) relative(t time.Time) string {
	return view.RelativeTime(t, s.now())
}
