package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-portfolio/credentials"
	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/rs/zerolog/log"
)

// AdminSegment is the path segment, after the locale, of the backoffice.
const AdminSegment = "backoffice"

// Action is what the gateway does with a request.
type Action int

const (
	// Bypass hands the request on untouched.
	Bypass Action = iota
	// RedirectLocale sends the visitor to the same path under a locale.
	RedirectLocale
	// RedirectLogin sends an unauthenticated visitor to the login page.
	RedirectLogin
	// PassThrough serves the request and refreshes the lang cookie.
	PassThrough
)

func (a Action) String() string {
	switch a {
	case Bypass:
		return "bypass"
	case RedirectLocale:
		return "redirect_locale"
	case RedirectLogin:
		return "redirect_login"
	case PassThrough:
		return "pass_through"
	default:
		return "unknown"
	}
}

// Decision is the outcome for one request. Location is set for redirects,
// Locale for everything but Bypass.
type Decision struct {
	Action   Action
	Locale   locale.Locale
	Location string
}

// Gateway runs in front of every route. It puts a locale in every page URL
// and keeps visitors without a credential out of the backoffice. The check
// is presence only: the backend still rejects bad tokens.
type Gateway struct {
	bypass        []string
	secureCookies bool
}

// NewGateway takes the path prefixes to leave alone, e.g. "/api".
func NewGateway(bypassPrefixes []string, secureCookies bool) *Gateway {
	return &Gateway{bypass: bypassPrefixes, secureCookies: secureCookies}
}

// Decide looks only at r, so the same request always gets the same
// decision. It never fails: anything unreadable counts as English and
// unauthenticated.
func (g *Gateway) Decide(r *http.Request) Decision {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if g.bypassed(path) {
		return Decision{Action: Bypass}
	}

	l, rest, ok := locale.FromPath(path)
	if !ok {
		preferred := locale.Preferred(cookieValue(r, locale.CookieName), r.Header.Get("Accept-Language"))
		return Decision{
			Action:   RedirectLocale,
			Locale:   preferred,
			Location: withQuery("/"+preferred.String()+path, r.URL.RawQuery),
		}
	}

	if isAdminPath(rest) && !hasCredential(r) {
		return Decision{
			Action:   RedirectLogin,
			Locale:   l,
			Location: "/" + l.String() + RouteLogin,
		}
	}
	return Decision{Action: PassThrough, Locale: l}
}

// Middleware applies Decide. Pass-through requests carry their locale in
// the request context.
func (g *Gateway) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r)
		switch d.Action {
		case RedirectLocale, RedirectLogin:
			log.Debug().
				Str("path", r.URL.Path).
				Str("action", d.Action.String()).
				Str("location", d.Location).
				Msg("gateway redirect")
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
		case PassThrough:
			http.SetCookie(w, locale.Cookie(d.Locale, g.secureCookies))
			next(w, r.WithContext(locale.WithLocale(r.Context(), d.Locale)))
		default:
			next(w, r)
		}
	}
}

// bypassed matches whole segments, so "/api" covers "/api/x" but not
// "/apidocs". Any path naming a file is bypassed too.
func (g *Gateway) bypassed(path string) bool {
	if strings.Contains(path, ".") {
		return true
	}
	for _, prefix := range g.bypass {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func isAdminPath(rest string) bool {
	segment, _, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	return segment == AdminSegment
}

func hasCredential(r *http.Request) bool {
	if cookieValue(r, credentials.AccessTokenCookie) != "" {
		return true
	}
	return bearerToken(r) != ""
}

// bearerToken returns the token of a "Bearer" Authorization header.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func withQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
