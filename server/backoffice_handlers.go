package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/jrsteele09/go-portfolio/apiclient"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const topVisitedPaths = 5

type backofficeContent struct {
	Active   string
	Sections []string
}

type sectionCount struct {
	Name    string
	Count   int
	Display string
}

type dashboardContent struct {
	backofficeContent
	Counts      []sectionCount
	Visits      *portfolio.VisitSummary
	VisitsTotal string
}

type sectionRow struct {
	ID    string
	Label string
}

type sectionContent struct {
	backofficeContent
	ReadOnly bool
	Rows     []sectionRow
	Profile  *portfolio.Profile
}

func backofficeSections() []string {
	return append(portfolio.CollectionNames(), portfolio.ResourceProfile)
}

// DashboardHandler shows how many items each collection holds and a
// summary of recent traffic. The collections are read concurrently, so
// an expired access token is refreshed once for all of them.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := locale.FromContext(ctx)
		printer := l.Printer()

		_, svc, err := s.backoffice(w, r)
		if err != nil {
			s.backofficeError(w, r, err)
			return
		}

		names := portfolio.CollectionNames()
		counts := make([]sectionCount, len(names))
		var visits []portfolio.Visit

		g, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			g.Go(func() error {
				if name == portfolio.ResourceVisits {
					rows, err := svc.Visits.List(gctx)
					visits = rows
					counts[i] = sectionCount{Name: name, Count: len(rows)}
					return err
				}
				raw, err := svc.Raw(name)
				if err != nil {
					return err
				}
				items, err := raw.List(gctx)
				counts[i] = sectionCount{Name: name, Count: len(items)}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			s.backofficeError(w, r, err)
			return
		}

		for i := range counts {
			counts[i].Display = printer.Sprintf("%d", counts[i].Count)
		}
		summary := portfolio.SummarizeVisits(visits, topVisitedPaths)
		content := dashboardContent{
			backofficeContent: backofficeContent{Active: "dashboard", Sections: backofficeSections()},
			Counts:            counts,
			Visits:            &summary,
			VisitsTotal:       printer.Sprintf("%d", summary.Total),
		}
		s.renderPage(w, r, http.StatusOK, pageDashboard, "backoffice.title", "", content)
	}
}

// SectionHandler lists one collection, or shows the profile.
func (s *Server) SectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := locale.FromContext(ctx)
		section := r.PathValue("section")
		if !slices.Contains(backofficeSections(), section) {
			s.NotFoundHandler()(w, r)
			return
		}

		_, svc, err := s.backoffice(w, r)
		if err != nil {
			s.backofficeError(w, r, err)
			return
		}

		content := sectionContent{
			backofficeContent: backofficeContent{Active: section, Sections: backofficeSections()},
			ReadOnly:          section == portfolio.ResourceVisits,
		}
		if section == portfolio.ResourceProfile {
			profile, err := svc.Profile.Get(ctx)
			if err != nil {
				s.backofficeError(w, r, err)
				return
			}
			content.Profile = &profile
		} else {
			rows, err := s.sectionRows(ctx, svc, section, l)
			if err != nil {
				s.backofficeError(w, r, err)
				return
			}
			content.Rows = rows
		}
		s.renderPage(w, r, http.StatusOK, pageSection, "backoffice.sections."+section, "", content)
	}
}

// DeleteItemHandler deletes one item and returns to its section.
func (s *Server) DeleteItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := locale.FromContext(r.Context())
		section, id := r.PathValue("section"), r.PathValue("id")
		if section == portfolio.ResourceVisits {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		_, svc, err := s.backoffice(w, r)
		if err != nil {
			s.backofficeError(w, r, err)
			return
		}
		raw, err := svc.Raw(section)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		if err := raw.Delete(r.Context(), id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.backofficeError(w, r, err)
			return
		}
		log.Info().Str("section", section).Str("id", id).Msg("backoffice item deleted")
		redirectSuccess(w, r, localized(l.String(), RouteBackoffice+section))
	}
}

func (s *Server) sectionRows(ctx context.Context, svc *portfolio.Service, section string, l locale.Locale) ([]sectionRow, error) {
	raw, err := svc.Raw(section)
	if err != nil {
		return nil, err
	}
	items, err := raw.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]sectionRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, rowFor(item, l))
	}
	return rows, nil
}

// labelFields are tried in order to find a human label for an item.
var labelFields = []string{"title", "name", "role", "degree", "subject", "company", "institution", "path"}

func rowFor(item json.RawMessage, l locale.Locale) sectionRow {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return sectionRow{}
	}
	var row sectionRow
	_ = json.Unmarshal(fields["id"], &row.ID)
	for _, name := range labelFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var text string
		if json.Unmarshal(raw, &text) == nil && text != "" {
			row.Label = text
			break
		}
		var loc portfolio.Localized
		if json.Unmarshal(raw, &loc) == nil && loc.In(l) != "" {
			row.Label = loc.In(l)
			break
		}
	}
	return row
}

// backofficeError sends the browser back to login when the backend has
// rejected its credentials for good, and shows an error page otherwise.
func (s *Server) backofficeError(w http.ResponseWriter, r *http.Request, err error) {
	l := locale.FromContext(r.Context())
	if apiclient.IsUnauthorized(err) || errors.Is(err, apperrors.ErrNoRefreshToken) {
		s.renderLoginError(w, r, l, "backoffice.session_expired", "")
		return
	}
	s.logError(r, err)

	status := http.StatusBadGateway
	if errors.Is(err, apperrors.ErrNotFound) {
		status = http.StatusNotFound
	}
	content := sectionContent{backofficeContent: backofficeContent{Active: "dashboard", Sections: backofficeSections()}}
	s.renderPage(w, r, status, pageSection, "backoffice.title", s.catalog.T(l, "errors.generic"), content)
}
