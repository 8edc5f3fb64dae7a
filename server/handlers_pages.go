package server

import (
	"net/http"

	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
)

type homeContent struct {
	Profile      portfolio.Profile
	Projects     []portfolio.Project
	Technologies []string
	Query        string
	Tech         string
}

// HomeHandler renders the public home page: profile and filterable
// projects, read without credentials.
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := locale.FromContext(ctx)
		content := homeContent{
			Query: r.URL.Query().Get("q"),
			Tech:  r.URL.Query().Get("tech"),
		}

		var errMsg string
		profile, err := s.site.Profile.GetPublic(ctx)
		if err != nil {
			log.Err(err).Msg("Failed to load profile")
		}
		content.Profile = profile

		projects, err := s.site.Projects.ListPublic(ctx)
		if err != nil {
			log.Err(err).Msg("Failed to load projects")
			errMsg = s.catalog.T(l, "errors.api_unavailable")
		}
		content.Technologies = portfolio.Technologies(projects)
		content.Projects = portfolio.FilterProjects(projects, content.Query, content.Tech, l)

		s.renderPage(w, r, http.StatusOK, pageHome, "meta.title", errMsg, content)
	}
}

// NotFoundHandler renders the localized 404 page.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusNotFound, pageNotFound, "errors.not_found", "", nil)
	}
}
