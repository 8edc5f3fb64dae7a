// Package portfolio is the backoffice's view of the site content held by
// the REST backend.
package portfolio

import (
	"time"

	"github.com/jrsteele09/go-portfolio/internal/utils"
	"github.com/jrsteele09/go-portfolio/locale"
)

// Localized is a piece of text published in both languages.
type Localized struct {
	EN string `json:"en"`
	FR string `json:"fr"`
}

// In returns the text for l, falling back to English when the translation
// is missing.
func (t Localized) In(l locale.Locale) string {
	if l == locale.French && t.FR != "" {
		return t.FR
	}
	return t.EN
}

type Project struct {
	ID           string    `json:"id,omitempty"`
	Title        Localized `json:"title"`
	Summary      Localized `json:"summary"`
	Description  Localized `json:"description"`
	Technologies []string  `json:"technologies,omitempty"`
	URL          string    `json:"url,omitempty"`
	RepoURL      string    `json:"repo_url,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Featured     bool      `json:"featured,omitempty"`
	Order        int       `json:"order,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Experience struct {
	ID          string    `json:"id,omitempty"`
	Company     string    `json:"company"`
	Role        Localized `json:"role"`
	Description Localized `json:"description"`
	Location    string    `json:"location,omitempty"`
	StartDate   string    `json:"start_date"`         // YYYY-MM-DD
	EndDate     *string   `json:"end_date,omitempty"` // nil while the position is current
}

// Current reports whether the position has no end date yet.
func (e Experience) Current() bool { return utils.Value(e.EndDate) == "" }

type Education struct {
	ID          string    `json:"id,omitempty"`
	Institution string    `json:"institution"`
	Degree      Localized `json:"degree"`
	Field       Localized `json:"field"`
	Description Localized `json:"description"`
	StartDate   string    `json:"start_date"`
	EndDate     *string   `json:"end_date,omitempty"`
}

type Skill struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Level    *int   `json:"level,omitempty"` // 1-5, nil when unrated
}

type Award struct {
	ID          string    `json:"id,omitempty"`
	Title       Localized `json:"title"`
	Issuer      string    `json:"issuer"`
	Date        string    `json:"date"`
	Description Localized `json:"description"`
}

// Credential is a certification, not a login credential.
type Credential struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Issuer       string  `json:"issuer"`
	IssuedOn     string  `json:"issued_on"`
	ExpiresOn    *string `json:"expires_on,omitempty"`
	CredentialID string  `json:"credential_id,omitempty"`
	URL          string  `json:"url,omitempty"`
}

// Expired reports whether the certification lapsed before now.
func (c Credential) Expired(now time.Time) bool {
	exp, err := time.Parse(time.DateOnly, utils.Value(c.ExpiresOn))
	return err == nil && exp.Before(now)
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Profile struct {
	Name     string    `json:"name"`
	Headline Localized `json:"headline"`
	Bio      Localized `json:"bio"`
	Email    string    `json:"email,omitempty"`
	Location string    `json:"location,omitempty"`
	Links    []Link    `json:"links,omitempty"`
}

// Email is one entry of the mailing history.
type Email struct {
	ID         string     `json:"id,omitempty"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Recipients []string   `json:"recipients"`
	Status     string     `json:"status,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// Visit is one analytics row recorded by the backend.
type Visit struct {
	ID        string    `json:"id,omitempty"`
	Path      string    `json:"path"`
	Locale    string    `json:"locale,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	Country   string    `json:"country,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}
