package credentials

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// PersistentCookieMaxAge is how long a remembered browser session lasts.
const PersistentCookieMaxAge = 30 * 24 * time.Hour

var _ Store = (*CookieStore)(nil)

// CookieStore keeps one scope of a browser's credentials in HttpOnly
// cookies. The session scope uses session cookies, the persistent scope
// uses cookies with a max-age. Writes become Set-Cookie headers, so they
// must happen before the response header is written.
type CookieStore struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	prefix string
	maxAge int
	secure bool
	slots  map[string]string
}

// NewCookieStore reads scope's slots from r and writes changes to w.
func NewCookieStore(w http.ResponseWriter, r *http.Request, scope Scope, secure bool) *CookieStore {
	s := &CookieStore{
		w:      w,
		prefix: scopeCookiePrefix(scope),
		secure: secure,
		slots:  make(map[string]string),
	}
	if scope == ScopePersistent {
		s.maxAge = int(PersistentCookieMaxAge.Seconds())
	}
	for _, slot := range []string{AccessTokenKey, RefreshTokenKey} {
		c, err := r.Cookie(s.prefix + slot)
		if err != nil {
			continue
		}
		if v, err := url.QueryUnescape(c.Value); err == nil && v != "" {
			s.slots[slot] = v
		}
	}
	return s
}

func scopeCookiePrefix(scope Scope) string {
	if scope == ScopePersistent {
		return "bo_p_"
	}
	return "bo_s_"
}

func (s *CookieStore) Load(_ context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, refresh := s.slots[AccessTokenKey], s.slots[RefreshTokenKey]
	if access == "" && refresh == "" {
		return nil, ErrNotFound
	}
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *CookieStore) Save(_ context.Context, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(AccessTokenKey, token.AccessToken)
	s.write(RefreshTokenKey, token.RefreshToken)
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// only expire cookies this browser actually holds
	for _, slot := range []string{AccessTokenKey, RefreshTokenKey} {
		if _, ok := s.slots[slot]; ok {
			s.write(slot, "")
		}
	}
	return nil
}

func (s *CookieStore) write(slot, value string) {
	c := &http.Cookie{
		Name:     s.prefix + slot,
		Value:    url.QueryEscape(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.maxAge,
	}
	if value == "" {
		c.MaxAge = -1
		delete(s.slots, slot)
	} else {
		s.slots[slot] = value
	}
	http.SetCookie(s.w, c)
}

// BrowserKeeper builds a Keeper over the cookies of one request, mirroring
// the access token into the gateway's cookie on the response.
func BrowserKeeper(w http.ResponseWriter, r *http.Request, secure bool) *Keeper {
	return NewKeeper(
		NewCookieStore(w, r, ScopeSession, secure),
		NewCookieStore(w, r, ScopePersistent, secure),
		NewResponseMirror(w, secure),
	)
}
