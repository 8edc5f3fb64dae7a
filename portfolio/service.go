package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
)

// Backend collection names.
const (
	ResourceProjects    = "projects"
	ResourceExperience  = "experience"
	ResourceEducation   = "education"
	ResourceSkills      = "skills"
	ResourceAwards      = "awards"
	ResourceCredentials = "credentials"
	ResourceEmails      = "emails"
	ResourceVisits      = "visits"
	ResourceProfile     = "profile"
)

// CollectionNames lists every collection resource, in backoffice menu order.
func CollectionNames() []string {
	return []string{
		ResourceProjects, ResourceExperience, ResourceEducation, ResourceSkills,
		ResourceAwards, ResourceCredentials, ResourceEmails, ResourceVisits,
	}
}

// Service bundles one typed resource per kind of content.
type Service struct {
	api API

	Projects    *Resource[Project]
	Experience  *Resource[Experience]
	Education   *Resource[Education]
	Skills      *Resource[Skill]
	Awards      *Resource[Award]
	Credentials *Resource[Credential]
	Emails      *Emails
	Visits      *Visits
	Profile     *Singleton[Profile]
}

func NewService(api API) *Service {
	return &Service{
		api:         api,
		Projects:    NewResource[Project](api, ResourceProjects),
		Experience:  NewResource[Experience](api, ResourceExperience),
		Education:   NewResource[Education](api, ResourceEducation),
		Skills:      NewResource[Skill](api, ResourceSkills),
		Awards:      NewResource[Award](api, ResourceAwards),
		Credentials: NewResource[Credential](api, ResourceCredentials),
		Emails:      &Emails{Resource: NewResource[Email](api, ResourceEmails)},
		Visits:      &Visits{r: NewResource[Visit](api, ResourceVisits)},
		Profile:     NewSingleton[Profile](api, ResourceProfile),
	}
}

// Raw gives untyped access to a collection by name, for tooling that just
// shuttles JSON around.
func (s *Service) Raw(name string) (*Resource[json.RawMessage], error) {
	if !slices.Contains(CollectionNames(), name) {
		return nil, fmt.Errorf("resource %q: %w", name, apperrors.ErrNotFound)
	}
	return NewResource[json.RawMessage](s.api, name), nil
}

// Emails is the mailing history plus the send action.
type Emails struct {
	*Resource[Email]
}

// Outgoing is a message to send.
type Outgoing struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// Send asks the backend to deliver msg and returns the history entry.
func (e *Emails) Send(ctx context.Context, msg Outgoing) (Email, error) {
	if len(msg.Recipients) == 0 {
		return Email{}, fmt.Errorf("send email: at least one recipient is required")
	}
	var sent Email
	err := e.api.Post(ctx, e.Path()+"send/", msg, &sent)
	return sent, err
}

// Visits is read-only: rows are recorded by the backend.
type Visits struct {
	r *Resource[Visit]
}

func (v *Visits) List(ctx context.Context) ([]Visit, error) { return v.r.List(ctx) }

func (v *Visits) Get(ctx context.Context, id string) (Visit, error) { return v.r.Get(ctx, id) }
