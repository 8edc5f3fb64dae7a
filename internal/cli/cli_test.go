package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-portfolio/credentials"
	"github.com/jrsteele09/go-portfolio/devapi"
	"github.com/jrsteele09/go-portfolio/internal/cli"
	"github.com/jrsteele09/go-portfolio/internal/config"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	t       *testing.T
	backend *httptest.Server
	site    *httptest.Server
	dbPath  string
}

func newFixture(t *testing.T) *cliFixture {
	t.Helper()
	issuer, err := devapi.NewIssuer("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	api, err := devapi.NewSeeded(issuer, "admin", "s3cret", config.Cors{})
	require.NoError(t, err)
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	// stands in for the gateway's presence check
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(credentials.AccessTokenCookie); err != nil || c.Value == "" {
			http.Redirect(w, r, "/en/login", http.StatusTemporaryRedirect)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(site.Close)

	return &cliFixture{
		t:       t,
		backend: backend,
		site:    site,
		dbPath:  filepath.Join(t.TempDir(), "credentials.db"),
	}
}

func (f *cliFixture) run(args ...string) (string, error) {
	f.t.Helper()
	f.t.Setenv("API_BASE_URL", f.backend.URL)
	f.t.Setenv("SITE_URL", f.site.URL)
	f.t.Setenv("TOKEN_DB_PATH", f.dbPath)
	c, err := config.New()
	require.NoError(f.t, err)

	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := cli.ParseConfig(fs, args, c, func(string) (string, bool) { return "", false })
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = cli.Run(context.Background(), cfg, &out)
	return out.String(), err
}

func TestParseConfig_Usage(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	for _, args := range [][]string{
		{},
		{"frobnicate"},
		{"list"},
		{"get", "projects"},
		{"status", "extra"},
	} {
		fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		_, err := cli.ParseConfig(fs, args, c, nil)
		require.ErrorIs(t, err, cli.ErrUsage, args)
	}
}

func TestParseConfig_FlagsOverEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.test")
	c, err := config.New()
	require.NoError(t, err)

	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	lookup := func(key string) (string, bool) {
		if key == cli.PasswordEnv {
			return "from-env", true
		}
		return "", false
	}
	cfg, err := cli.ParseConfig(fs, []string{"-api", "http://flag.test", "-user", "admin", "login", "-remember"}, c, lookup)
	require.NoError(t, err)
	require.Equal(t, "http://flag.test", cfg.APIBaseURL)
	require.Equal(t, "from-env", cfg.Password)
	require.Equal(t, "login", cfg.Command)
	require.True(t, cfg.Remember)
	require.Empty(t, cfg.Args)
}

func TestRun_RememberedSession(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("status")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)

	out, err = f.run("-user", "admin", "-password", "s3cret", "login", "-remember")
	require.NoError(t, err)
	require.Contains(t, out, "persistent")

	// a later invocation finds the session on disk
	out, err = f.run("status")
	require.NoError(t, err)
	require.Contains(t, out, "signed in (persistent)")
	require.Contains(t, out, "access token expires")

	out, err = f.run("list", "visits")
	require.NoError(t, err)
	var visits []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &visits))
	require.Len(t, visits, 3)

	out, err = f.run("open", "/en/backoffice/")
	require.NoError(t, err)
	require.Equal(t, "200 OK\n", out)

	_, err = f.run("logout")
	require.NoError(t, err)
	out, err = f.run("status")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)

	out, err = f.run("open", "/en/backoffice/")
	require.NoError(t, err)
	require.Contains(t, out, "-> /en/login")
}

func TestRun_OneShotSession(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("-user", "admin", "-password", "s3cret", "list", "skills")
	require.NoError(t, err)
	var skills []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &skills))
	require.Len(t, skills, 2)
	id := skills[0]["id"].(string)

	out, err = f.run("-user", "admin", "-password", "s3cret", "get", "skills", id)
	require.NoError(t, err)
	require.Contains(t, out, id)

	out, err = f.run("-user", "admin", "-password", "s3cret", "delete", "skills", id)
	require.NoError(t, err)
	require.Equal(t, "deleted skills/"+id+"\n", out)

	// session credentials do not outlive the invocation
	out, err = f.run("status")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)
}

func TestRun_Profile(t *testing.T) {
	f := newFixture(t)
	out, err := f.run("-user", "admin", "-password", "s3cret", "list", "profile")
	require.NoError(t, err)
	require.Contains(t, out, "Alex Martin")
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run("login")
	require.ErrorIs(t, err, cli.ErrUsage)

	_, err = f.run("-user", "admin", "-password", "wrong", "login")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.run("list", "emails")
	require.Error(t, err)

	_, err = f.run("-user", "admin", "-password", "s3cret", "list", "widgets")
	require.Error(t, err)
}
