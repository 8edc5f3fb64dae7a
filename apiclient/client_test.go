package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-portfolio/apiclient"
	"github.com/jrsteele09/go-portfolio/credentials"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// backend is a stand-in REST API. Requests to /api/items/ succeed only with
// the bearer token in valid.
type backend struct {
	server *httptest.Server

	mu        sync.Mutex
	valid     string
	nextToken string
	refreshOK bool
	keepValid bool // refresh issues a token the API still rejects
	seen      []string // Authorization headers on /api/items/
	bodies    []string

	refreshes atomic.Int32
	// gate, when set, holds the refresh handler until closed
	gate chan struct{}
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{valid: "A1", nextToken: "A2", refreshOK: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/items/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.seen = append(b.seen, r.Header.Get("Authorization"))
		b.bodies = append(b.bodies, string(body))
		ok := r.Header.Get("Authorization") == "Bearer "+b.valid
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
			return
		}
		_, _ = io.WriteString(w, `{"items":["a","b"]}`)
	})
	mux.HandleFunc("/api/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc(apiclient.PathTokenRefresh, func(w http.ResponseWriter, r *http.Request) {
		b.refreshes.Add(1)
		b.mu.Lock()
		gate := b.gate
		b.mu.Unlock()
		if gate != nil {
			<-gate
		}
		var in struct {
			Refresh string `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !b.refreshOK || in.Refresh != "R1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
			return
		}
		if !b.keepValid {
			b.valid = b.nextToken
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": b.nextToken})
	})
	mux.HandleFunc(apiclient.PathToken, func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if in.Username != "admin" || in.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "A1", "refresh": "R1"})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) expire(to string) {
	b.configure(func(b *backend) { b.valid = to })
}

func (b *backend) configure(fn func(*backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *backend) authHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seen...)
}

type fixture struct {
	backend *backend
	keeper  *credentials.Keeper
	client  *apiclient.Client
}

func newFixture(t *testing.T, token *oauth2.Token) fixture {
	t.Helper()
	b := newBackend(t)
	keeper := credentials.NewKeeper(credentials.NewMemoryStore(), credentials.NewMemoryStore(), nil)
	if token != nil {
		require.NoError(t, keeper.Login(context.Background(), credentials.ScopeSession, token))
	}
	client, err := apiclient.New(b.server.URL, keeper, apiclient.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return fixture{backend: b, keeper: keeper, client: client}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})

	var out struct{ Items []string }
	require.NoError(t, f.client.Get(context.Background(), "/api/items/", &out))
	require.Equal(t, []string{"a", "b"}, out.Items)
	require.Equal(t, []string{"Bearer A1"}, f.backend.authHeaders())
	require.Zero(t, f.backend.refreshes.Load())
}

func TestClient_PublicClientSendsNoCredentials(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})

	err := f.client.PublicGet(context.Background(), "/api/items/", nil)
	require.True(t, apiclient.IsUnauthorized(err))
	require.Equal(t, []string{""}, f.backend.authHeaders())
	require.Zero(t, f.backend.refreshes.Load())
}

func TestClient_RefreshSuccessReplaysRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	f.backend.expire("A2")

	var out struct{ Items []string }
	require.NoError(t, f.client.Post(ctx, "/api/items/", map[string]string{"title": "hello"}, &out))

	require.Equal(t, []string{"Bearer A1", "Bearer A2"}, f.backend.authHeaders())
	f.backend.configure(func(b *backend) {
		require.Equal(t, b.bodies[0], b.bodies[1], "replayed body must match")
		require.JSONEq(t, `{"title":"hello"}`, b.bodies[1])
	})
	require.EqualValues(t, 1, f.backend.refreshes.Load())

	access, err := f.keeper.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", access)
	refresh, err := f.keeper.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "R1", refresh)
}

func TestClient_RefreshFailureClearsAndReturnsOriginalError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	f.backend.expire("A2")
	f.backend.configure(func(b *backend) { b.refreshOK = false })

	err := f.client.Get(ctx, "/api/items/", nil)
	require.Error(t, err)

	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Given token not valid for any token type", apiErr.Message)
	require.Contains(t, string(apiErr.Body), "Given token not valid")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.keeper.AccessToken(ctx)
	require.True(t, credentials.IsNotFound(err))
	_, err = f.keeper.RefreshToken(ctx)
	require.True(t, credentials.IsNotFound(err))
	require.Equal(t, []string{"Bearer A1"}, f.backend.authHeaders())
}

func TestClient_SecondUnauthorizedIsFinal(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	f.backend.expire("never")
	f.backend.configure(func(b *backend) { b.keepValid = true })

	err := f.client.Get(context.Background(), "/api/items/", nil)
	require.True(t, apiclient.IsUnauthorized(err))
	require.Equal(t, []string{"Bearer A1", "Bearer A2"}, f.backend.authHeaders())
	require.EqualValues(t, 1, f.backend.refreshes.Load())
}

func TestClient_ConcurrentFailuresShareOneRefresh(t *testing.T) {
	const n = 12
	ctx := context.Background()
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	f.backend.expire("A2")
	gate := make(chan struct{})
	f.backend.configure(func(b *backend) { b.gate = gate })

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.client.Get(ctx, "/api/items/", nil)
		}()
	}

	// let every call fail once before the refresh answers
	require.Eventually(t, func() bool { return len(f.backend.authHeaders()) >= n }, 2*time.Second, 5*time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.backend.refreshes.Load())

	var replayed int
	for _, h := range f.backend.authHeaders() {
		if h == "Bearer A2" {
			replayed++
		}
	}
	require.Equal(t, n, replayed)
}

func TestClient_ConcurrentFailuresAllFailWhenRefreshFails(t *testing.T) {
	const n = 8
	ctx := context.Background()
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	f.backend.expire("A2")
	f.backend.configure(func(b *backend) { b.refreshOK = false })

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.client.Get(ctx, "/api/items/", nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.True(t, apiclient.IsUnauthorized(err))
	}
	require.EqualValues(t, 1, f.backend.refreshes.Load())
}

func TestClient_MissingRefreshTokenClearsCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &oauth2.Token{AccessToken: "A1"})

	_, err := f.client.Refresh(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Zero(t, f.backend.refreshes.Load())

	_, err = f.keeper.AccessToken(ctx)
	require.True(t, credentials.IsNotFound(err))
}

func TestClient_NonAuthErrorsPassThrough(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})

	err := f.client.Get(context.Background(), "/api/broken/", nil)
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "Internal Server Error", apiErr.Message)
	require.Zero(t, f.backend.refreshes.Load())
}

func TestClient_WaiterStopsOnOwnContext(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "A1", RefreshToken: "R1"})
	gate := make(chan struct{})
	f.backend.configure(func(b *backend) { b.gate = gate })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.client.Refresh(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.backend.refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// the shared refresh keeps going and still lands
	close(gate)
	require.Eventually(t, func() bool {
		access, err := f.keeper.AccessToken(context.Background())
		return err == nil && access == "A2"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	err := f.client.Login(ctx, "admin", "wrong", credentials.ScopePersistent)
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	require.True(t, strings.HasPrefix(apiErr.Message, "No active account"))
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.client.Login(ctx, "admin", "secret", credentials.ScopePersistent))
	_, scope, err := f.keeper.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.ScopePersistent, scope)

	require.NoError(t, f.client.Logout(ctx))
	_, err = f.keeper.AccessToken(ctx)
	require.True(t, credentials.IsNotFound(err))
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	keeper := credentials.NewKeeper(credentials.NewMemoryStore(), credentials.NewMemoryStore(), nil)
	_, err := apiclient.New("not a url", keeper)
	require.Error(t, err)
	_, err = apiclient.New("http://localhost:8000", nil)
	require.Error(t, err)
}
