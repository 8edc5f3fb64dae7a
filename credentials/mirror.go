package credentials

import (
	"fmt"
	"net/http"
	"net/url"
)

// AccessTokenCookie is the cookie the site gateway checks for admin routes.
const AccessTokenCookie = "access_token"

// CookieMirror keeps a cookie copy of the access token in step with the
// stores.
type CookieMirror interface {
	SetAccessToken(token string)
	ClearAccessToken()
}

// AccessCookie builds the access_token cookie. An empty token builds the
// expiring cookie that clears it.
func AccessCookie(token string, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    url.QueryEscape(token),
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1 // sent as Max-Age=0
	}
	return c
}

// JarMirror writes the access token into a cookie jar for the site URL, so
// requests the client makes to the site carry it like a browser would.
type JarMirror struct {
	jar    http.CookieJar
	site   *url.URL
	secure bool
}

var _ CookieMirror = (*JarMirror)(nil)

func NewJarMirror(jar http.CookieJar, siteURL string, secure bool) (*JarMirror, error) {
	if jar == nil {
		return nil, fmt.Errorf("cookie jar is required")
	}
	site, err := url.Parse(siteURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q", siteURL)
	}
	return &JarMirror{jar: jar, site: site, secure: secure}, nil
}

func (m *JarMirror) SetAccessToken(token string) {
	m.jar.SetCookies(m.site, []*http.Cookie{AccessCookie(token, m.secure)})
}

func (m *JarMirror) ClearAccessToken() {
	m.jar.SetCookies(m.site, []*http.Cookie{AccessCookie("", m.secure)})
}

type noopMirror struct{}

func (noopMirror) SetAccessToken(string) {}
func (noopMirror) ClearAccessToken()     {}

// ResponseMirror sets the access token cookie on a response, for a server
// acting on behalf of a browser.
type ResponseMirror struct {
	w      http.ResponseWriter
	secure bool
}

var _ CookieMirror = ResponseMirror{}

func NewResponseMirror(w http.ResponseWriter, secure bool) ResponseMirror {
	return ResponseMirror{w: w, secure: secure}
}

func (m ResponseMirror) SetAccessToken(token string) {
	http.SetCookie(m.w, AccessCookie(token, m.secure))
}

func (m ResponseMirror) ClearAccessToken() {
	http.SetCookie(m.w, AccessCookie("", m.secure))
}
