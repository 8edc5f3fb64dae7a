package server_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-portfolio/i18n"
	"github.com/jrsteele09/go-portfolio/internal/config"
	"github.com/jrsteele09/go-portfolio/server"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *server.Server {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	cfg, err := config.New()
	require.NoError(t, err)
	catalog, err := i18n.LoadEmbedded()
	require.NoError(t, err)
	srv, err := server.New(cfg, catalog)
	require.NoError(t, err)
	return srv
}

func TestChainMiddleware_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.HandlerFunc) http.HandlerFunc {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}
	h := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}, mw("first"), mw("second"))

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newServer(t)
	h := srv.RecoverMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h(rec, httptest.NewRequest(http.MethodGet, "/en/", nil)) })
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoverMiddleware_AbortHandlerPropagates(t *testing.T) {
	srv := newServer(t)
	h := srv.RecoverMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	require.Panics(t, func() { h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)) })
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	srv := newServer(t)
	h := srv.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get(server.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(server.HeaderRequestID, "abc")
	rec = httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, "abc", rec.Header().Get(server.HeaderRequestID))
}

func TestPages_SecurityHeaders(t *testing.T) {
	srv := newServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestAssets_CacheAndCompression(t *testing.T) {
	srv := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=300, must-revalidate", rec.Header().Get("Cache-Control"))
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	css, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.NotEmpty(t, css)
}

func TestAssets_Missing(t *testing.T) {
	srv := newServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/missing.css", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIProxy_BackendDown(t *testing.T) {
	srv := newServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"detail":"Backend unavailable"}`, rec.Body.String())
}

func TestHome_BackendDown(t *testing.T) {
	srv := newServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fr/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `role="alert"`)
}

func TestAssets_NotModified(t *testing.T) {
	srv := newServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/site.css", nil))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
	require.Zero(t, rec.Body.Len())
}
