package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-portfolio/apiclient"
	"github.com/jrsteele09/go-portfolio/credentials"
	"github.com/jrsteele09/go-portfolio/i18n"
	"github.com/jrsteele09/go-portfolio/internal/config"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	shutdownTimeout = 5 * time.Second
)

type Server struct {
	env       string
	mux       *http.ServeMux
	handler   http.HandlerFunc
	routes    []string
	config    config.Config
	gateway   *Gateway
	catalog   *i18n.Catalog
	transport http.RoundTripper
	proxy     http.Handler
	pages     *pageSet

	// site reads public content; it never holds credentials
	site *portfolio.Service
}

// Option configures a Server.
type Option func(*Server)

// WithTransport sets the transport used to reach the REST backend.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Server) {
		if rt != nil {
			s.transport = rt
		}
	}
}

func New(cfg config.Config, catalog *i18n.Catalog, opts ...Option) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("[Server New] an i18n catalog is required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		catalog:   catalog,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(s)
	}

	// healthz is served outside any locale, like the configured prefixes
	bypass := append(cfg.GetBypassPrefixes(), RouteHealth)
	s.gateway = NewGateway(bypass, cfg.GetSecureCookies())

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.pages = pages

	proxy, err := s.newAPIProxy()
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.proxy = proxy

	site, err := apiclient.New(cfg.GetAPIBaseURL(),
		credentials.NewKeeper(credentials.NewMemoryStore(), credentials.NewMemoryStore(), nil),
		s.clientOptions()...,
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.site = portfolio.NewService(site)

	s.initRoutes()
	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.SiteMiddleware()...)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// ListenAndServe serves on the configured port until ctx ends, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.GetPort(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) clientOptions() []apiclient.Option {
	return []apiclient.Option{
		apiclient.WithBaseTransport(s.transport),
		apiclient.WithTimeout(s.config.GetRequestTimeout()),
		apiclient.WithRefreshTimeout(s.config.GetRefreshTimeout()),
	}
}

// backoffice builds a client acting for the browser that sent r. Token
// changes, including a refresh, come back to the browser as cookies on w,
// so it must be used before the response header is written.
func (s *Server) backoffice(w http.ResponseWriter, r *http.Request) (*apiclient.Client, *portfolio.Service, error) {
	keeper := credentials.BrowserKeeper(w, r, s.secureCookies(r))
	client, err := apiclient.New(s.config.GetAPIBaseURL(), keeper, s.clientOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return client, portfolio.NewService(client), nil
}

// newAPIProxy forwards /api/ to the REST backend, so the browser can reach
// it on the site's origin.
func (s *Server) newAPIProxy() (http.Handler, error) {
	target, err := url.Parse(s.config.GetAPIBaseURL())
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", s.config.GetAPIBaseURL())
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: s.transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Err(err).Str("path", r.URL.Path).Msg("api proxy failed")
			w.Header().Set("Content-Type", contentTypeJSON)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"detail":"Backend unavailable"}`))
		},
	}, nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "*", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}

func (s *Server) logError(r *http.Request, err error) {
	log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
}

// secureCookies marks cookies Secure when configured to, or when the
// request arrived over https.
func (s *Server) secureCookies(r *http.Request) bool {
	return s.config.GetSecureCookies() || getScheme(r) == "https"
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
