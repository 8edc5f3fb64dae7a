package devapi

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-portfolio/internal/utils"
	"github.com/jrsteele09/go-portfolio/portfolio"
)

// Seed fills s with a small bilingual sample so the site has something to
// show in development.
func Seed(s *Store) error {
	now := NowTimeFunc().UTC().Truncate(time.Second)

	profile, err := toObject(portfolio.Profile{
		Name:     "Alex Martin",
		Headline: portfolio.Localized{EN: "Full-stack developer", FR: "Développeur full-stack"},
		Bio: portfolio.Localized{
			EN: "I design and build web platforms end to end.",
			FR: "Je conçois et développe des plateformes web de bout en bout.",
		},
		Email:    "alex@example.com",
		Location: "Montréal",
		Links:    []portfolio.Link{{Label: "GitHub", URL: "https://github.com/example"}},
	})
	if err != nil {
		return err
	}
	s.SetProfile(profile)

	seeds := map[string][]any{
		portfolio.ResourceProjects: {
			portfolio.Project{
				Title:        portfolio.Localized{EN: "Portfolio site", FR: "Site portfolio"},
				Summary:      portfolio.Localized{EN: "This bilingual site.", FR: "Ce site bilingue."},
				Technologies: []string{"Go", "HTMX"},
				Featured:     true,
				Order:        1,
				CreatedAt:    now,
			},
			portfolio.Project{
				Title:        portfolio.Localized{EN: "Event ticketing", FR: "Billetterie d'événements"},
				Summary:      portfolio.Localized{EN: "Ticket sales for small venues.", FR: "Vente de billets pour petites salles."},
				Technologies: []string{"Python", "Django", "PostgreSQL"},
				Order:        2,
				CreatedAt:    now,
			},
		},
		portfolio.ResourceExperience: {
			portfolio.Experience{
				Company:   "Acme Corp",
				Role:      portfolio.Localized{EN: "Senior developer", FR: "Développeur principal"},
				StartDate: "2021-03-01",
			},
			portfolio.Experience{
				Company:   "Initech",
				Role:      portfolio.Localized{EN: "Developer", FR: "Développeur"},
				StartDate: "2017-09-01",
				EndDate:   utils.Ptr("2021-02-28"),
			},
		},
		portfolio.ResourceEducation: {
			portfolio.Education{
				Institution: "Université de Montréal",
				Degree:      portfolio.Localized{EN: "BSc", FR: "Baccalauréat"},
				Field:       portfolio.Localized{EN: "Computer science", FR: "Informatique"},
				StartDate:   "2013-09-01",
				EndDate:     utils.Ptr("2017-05-31"),
			},
		},
		portfolio.ResourceSkills: {
			portfolio.Skill{Name: "Go", Category: "backend", Level: utils.Ptr(5)},
			portfolio.Skill{Name: "TypeScript", Category: "frontend", Level: utils.Ptr(4)},
		},
		portfolio.ResourceAwards: {
			portfolio.Award{
				Title:  portfolio.Localized{EN: "Hackathon winner", FR: "Lauréat du hackathon"},
				Issuer: "DevFest",
				Date:   "2022-11-12",
			},
		},
		portfolio.ResourceCredentials: {
			portfolio.Credential{Name: "Cloud Practitioner", Issuer: "AWS", IssuedOn: "2023-01-10", ExpiresOn: utils.Ptr("2026-01-10")},
		},
		portfolio.ResourceVisits: {
			portfolio.Visit{Path: "/en/", Locale: "en", VisitedAt: now.Add(-2 * time.Hour)},
			portfolio.Visit{Path: "/fr/", Locale: "fr", VisitedAt: now.Add(-time.Hour)},
			portfolio.Visit{Path: "/en/", Locale: "en", VisitedAt: now},
		},
	}

	for _, name := range portfolio.CollectionNames() {
		for _, item := range seeds[name] {
			obj, err := toObject(item)
			if err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
			if _, err := s.Create(name, obj); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
		}
	}
	return nil
}
