package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// Page names, each a layout plus its own templates.
const (
	pageHome      = "home"
	pageLogin     = "login"
	pageDashboard = "dashboard"
	pageSection   = "section"
	pageNotFound  = "notfound"
)

var pageFiles = map[string][]string{
	pageHome:      {"layout.html", "home.html"},
	pageLogin:     {"layout.html", "login.html"},
	pageDashboard: {"layout.html", "backoffice.html", "dashboard.html"},
	pageSection:   {"layout.html", "backoffice.html", "section.html"},
	pageNotFound:  {"layout.html", "notfound.html"},
}

type pageSet struct {
	pages map[string]*template.Template
}

// placeholderFuncs are replaced per request with ones bound to the
// request's locale.
var placeholderFuncs = template.FuncMap{
	"t":         func(key string) string { return key },
	"localized": func(v portfolio.Localized) string { return v.EN },
}

// ParseTemplate parses the named files from the embedded filesystem
func ParseTemplate(names ...string) (*template.Template, error) {
	return template.New(names[0]).Funcs(placeholderFuncs).ParseFS(TemplateFilesFS(), names...)
}

func parsePages() (*pageSet, error) {
	set := &pageSet{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, files := range pageFiles {
		tmpl, err := ParseTemplate(files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		set.pages[name] = tmpl
	}
	return set, nil
}

// languageLink is one entry of the language switcher.
type languageLink struct {
	Code   string
	Name   string
	Href   string
	Active bool
}

// pageData is what the layout renders; Content is the page's own model.
type pageData struct {
	AppName   string
	Locale    locale.Locale
	Title     string
	Error     string
	Languages []languageLink
	Content   any
}

// languageLinks points at the current page in every supported locale.
func languageLinks(r *http.Request, current locale.Locale) []languageLink {
	_, rest, ok := locale.FromPath(r.URL.Path)
	if !ok {
		rest = "/"
	}
	links := make([]languageLink, 0, len(locale.Supported()))
	for _, l := range locale.Supported() {
		links = append(links, languageLink{
			Code:   l.String(),
			Name:   l.Name(),
			Href:   withQuery(localized(l.String(), rest), r.URL.RawQuery),
			Active: l == current,
		})
	}
	return links
}

// renderPage executes a page for the request's locale. The page is
// rendered to a buffer first so a template error still yields a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page, titleKey, errMsg string, content any) {
	l := locale.FromContext(r.Context())
	tmpl, ok := s.pages.pages[page]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bound, err := tmpl.Clone()
	if err != nil {
		s.logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	bound.Funcs(template.FuncMap{
		"t":         s.catalog.Translator(l),
		"localized": func(v portfolio.Localized) string { return v.In(l) },
	})

	data := pageData{
		AppName:   s.config.GetAppName(),
		Locale:    l,
		Title:     s.catalog.T(l, titleKey),
		Error:     errMsg,
		Languages: languageLinks(r, l),
		Content:   content,
	}

	var buf bytes.Buffer
	if err := bound.Execute(&buf, data); err != nil {
		log.Err(err).Str("page", page).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
