// Package apiclient talks to the portfolio REST backend. It keeps two
// logical clients: a public one that sends requests untouched, and an
// authenticated one whose Transport attaches the bearer token and recovers
// from an expired access token with a single shared refresh.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-portfolio/credentials"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Backend endpoints for the token exchange.
const (
	PathToken        = "/api/token/"
	PathTokenRefresh = "/api/token/refresh/"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultRefreshTimeout = 10 * time.Second
)

// Keeper is the credential state the client reads and writes.
// *credentials.Keeper satisfies it.
type Keeper interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Login(ctx context.Context, scope credentials.Scope, token *oauth2.Token) error
	UpdateAccess(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// Client owns the refresh state for one backend. Construct one per backend
// and share it; the single-flight guarantee holds per Client.
type Client struct {
	baseURL        *url.URL
	keeper         Keeper
	base           http.RoundTripper
	timeout        time.Duration
	refreshTimeout time.Duration

	public *http.Client
	authed *http.Client

	flight singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithBaseTransport sets the transport both clients dispatch through.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithTimeout bounds every request, including a refresh-and-retry cycle.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRefreshTimeout bounds the shared refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func New(baseURL string, keeper Keeper, opts ...Option) (*Client, error) {
	if keeper == nil {
		return nil, fmt.Errorf("[apiclient New] keeper is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:        u,
		keeper:         keeper,
		base:           http.DefaultTransport,
		timeout:        defaultTimeout,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.public = &http.Client{Transport: c.base, Timeout: c.timeout}
	c.authed = &http.Client{Transport: &Transport{client: c}, Timeout: c.timeout}
	return c, nil
}

// Public returns the client used for public reads and the token endpoints.
func (c *Client) Public() *http.Client { return c.public }

// Authed returns the client that attaches credentials and refreshes them.
func (c *Client) Authed() *http.Client { return c.authed }

// BaseURL returns the backend root, without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// URL resolves an API path such as "/api/projects/" against the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges username and password for a token pair and stores it in
// scope, replacing whatever pair was held before. A 4xx answer is reported
// as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string, scope credentials.Scope) error {
	var pair loginResponse
	if err := c.do(ctx, c.public, http.MethodPost, PathToken, loginRequest{Username: username, Password: password}, &pair); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
		}
		return err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return fmt.Errorf("login: backend returned an incomplete token pair")
	}
	return c.keeper.Login(ctx, scope, &oauth2.Token{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "Bearer",
	})
}

// Logout drops the stored credentials and the cookie mirror.
func (c *Client) Logout(ctx context.Context) error {
	return c.keeper.Clear(ctx)
}
