package server

import (
	"net/http"

	"github.com/jrsteele09/go-portfolio/locale"
)

func (s *Server) initRoutes() {
	// Pages are registered once per locale; the gateway has already put the
	// locale on the request context.
	for _, l := range locale.Supported() {
		lang := l.String()
		s.RegisterRouteFunc("GET "+localized(lang, "/{$}"), ChainMiddleware(s.HomeHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteFunc("GET "+localized(lang, RouteLogin), ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteFunc("POST "+localized(lang, RouteLogin), ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteFunc("POST "+localized(lang, RouteLogout), ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

		// Backoffice
		s.RegisterRouteFunc("GET "+localized(lang, RouteBackoffice+"{$}"), ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteFunc("GET "+localized(lang, RouteBackofficeSection), ChainMiddleware(s.SectionHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteFunc("POST "+localized(lang, RouteBackofficeDelete), ChainMiddleware(s.DeleteItemHandler(), s.HTMLMiddleWare()...))
	}

	// Site-level
	s.RegisterRouteFunc("GET "+RouteAssets, ChainMiddleware(s.serveFileHandler(), s.AssetMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler(RouteAPI, s.proxy)
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("file")
		if filePath == "" {
			http.NotFound(w, r)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			s.logError(r, err)
			http.NotFound(w, r)
		}
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
