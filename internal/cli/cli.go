// Package cli implements the backoffice command line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/jrsteele09/go-portfolio/apiclient"
	"github.com/jrsteele09/go-portfolio/credentials"
	"github.com/jrsteele09/go-portfolio/internal/config"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
)

// ErrUsage is returned for a missing or malformed command line.
var ErrUsage = errors.New("usage")

// PasswordEnv is read when -password is not given.
const PasswordEnv = "BACKOFFICE_PASSWORD"

const usage = `usage: backoffice [flags] <command> [args]

commands:
  login [-remember]        sign in; -remember keeps the session on disk
  logout                   forget the stored credentials
  status                   show who is signed in and until when
  list <resource>          print a collection, or the profile
  get <resource> <id>      print one item
  delete <resource> <id>   delete one item
  open <path>              request a site page as the signed-in user

Without -remember the credentials only last for one invocation, so pass
-user with any other command to sign in for just that command.`

// Config holds the parsed command line.
type Config struct {
	APIBaseURL     string
	SiteURL        string
	TokenDBPath    string
	Timeout        time.Duration
	RefreshTimeout time.Duration
	Username       string
	Password       string
	Remember       bool
	Command        string
	Args           []string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig reads flags over the environment defaults in c.
func ParseConfig(fs *flag.FlagSet, args []string, c config.Config, lookup EnvLookup) (Config, error) {
	cfg := Config{
		APIBaseURL:     c.GetAPIBaseURL(),
		SiteURL:        c.GetSiteURL(),
		TokenDBPath:    c.GetTokenDBPath(),
		Timeout:        c.GetRequestTimeout(),
		RefreshTimeout: c.GetRefreshTimeout(),
	}
	if lookup != nil {
		if v, ok := lookup(PasswordEnv); ok {
			cfg.Password = v
		}
	}

	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "REST backend base URL")
	fs.StringVar(&cfg.SiteURL, "site", cfg.SiteURL, "portfolio site URL, used by open")
	fs.StringVar(&cfg.TokenDBPath, "db", cfg.TokenDBPath, "where remembered credentials are kept")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for each request")
	fs.StringVar(&cfg.Username, "user", "", "username to sign in with")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "password (default $"+PasswordEnv+")")
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, fmt.Errorf("%w: no command given", ErrUsage)
	}
	cfg.Command, cfg.Args = rest[0], rest[1:]

	if cfg.Command == "login" {
		sub := flag.NewFlagSet("login", flag.ContinueOnError)
		sub.SetOutput(fs.Output())
		sub.BoolVar(&cfg.Remember, "remember", false, "keep the session on disk")
		if err := sub.Parse(cfg.Args); err != nil {
			return Config{}, err
		}
		cfg.Args = sub.Args()
	}

	want := map[string]int{"login": 0, "logout": 0, "status": 0, "list": 1, "get": 2, "delete": 2, "open": 1}
	n, ok := want[cfg.Command]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown command %q", ErrUsage, cfg.Command)
	}
	if len(cfg.Args) != n {
		return Config{}, fmt.Errorf("%w: %s takes %d argument(s)", ErrUsage, cfg.Command, n)
	}
	return cfg, nil
}

// Usage returns the command summary.
func Usage() string { return usage }

// session is everything one invocation works with.
type session struct {
	cfg        Config
	keeper     *credentials.Keeper
	client     *apiclient.Client
	service    *portfolio.Service
	jar        http.CookieJar
	persistent *credentials.SQLiteStore
}

// Run executes the command in cfg, writing results to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.persistent.Close()

	if cfg.Username != "" && cfg.Command != "login" {
		if err := s.login(ctx, credentials.ScopeSession); err != nil {
			return err
		}
	}

	switch cfg.Command {
	case "login":
		scope := credentials.ScopeSession
		if cfg.Remember {
			scope = credentials.ScopePersistent
		}
		if err := s.login(ctx, scope); err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s (%s)\n", cfg.Username, scope)
		return nil
	case "logout":
		if err := s.client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "signed out")
		return nil
	case "status":
		return s.status(ctx, out)
	case "list":
		return s.list(ctx, out, cfg.Args[0])
	case "get":
		return s.get(ctx, out, cfg.Args[0], cfg.Args[1])
	case "delete":
		return s.delete(ctx, out, cfg.Args[0], cfg.Args[1])
	case "open":
		return s.open(ctx, out, cfg.Args[0])
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cfg.Command)
	}
}

func newSession(cfg Config) (*session, error) {
	persistent, err := credentials.NewSQLiteStore(cfg.TokenDBPath)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		persistent.Close()
		return nil, err
	}
	mirror, err := credentials.NewJarMirror(jar, cfg.SiteURL, strings.HasPrefix(cfg.SiteURL, "https://"))
	if err != nil {
		persistent.Close()
		return nil, err
	}

	keeper := credentials.NewKeeper(credentials.NewMemoryStore(), persistent, mirror)
	client, err := apiclient.New(cfg.APIBaseURL, keeper,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithRefreshTimeout(cfg.RefreshTimeout),
	)
	if err != nil {
		persistent.Close()
		return nil, err
	}

	// the jar starts empty each run, unlike a browser's
	if token, err := keeper.AccessToken(context.Background()); err == nil {
		mirror.SetAccessToken(token)
	}

	return &session{
		cfg:        cfg,
		keeper:     keeper,
		client:     client,
		service:    portfolio.NewService(client),
		jar:        jar,
		persistent: persistent,
	}, nil
}

func (s *session) login(ctx context.Context, scope credentials.Scope) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("%w: -user and -password (or $%s) are required to sign in", ErrUsage, PasswordEnv)
	}
	if err := s.client.Login(ctx, s.cfg.Username, s.cfg.Password, scope); err != nil {
		return apperrors.Wrapf(err, "sign in as %s", s.cfg.Username)
	}
	log.Debug().Str("scope", scope.String()).Msg("signed in")
	return nil
}

func (s *session) status(ctx context.Context, out io.Writer) error {
	token, scope, err := s.keeper.Token(ctx)
	if credentials.IsNotFound(err) {
		fmt.Fprintln(out, "not signed in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "signed in (%s)\n", scope)
	if exp, ok := credentials.Expiry(token.AccessToken); ok {
		fmt.Fprintf(out, "access token expires %s\n", exp.Local().Format(time.RFC3339))
	}
	if exp, ok := credentials.Expiry(token.RefreshToken); ok {
		fmt.Fprintf(out, "refresh token expires %s\n", exp.Local().Format(time.RFC3339))
	}
	return nil
}

func (s *session) list(ctx context.Context, out io.Writer, resource string) error {
	if resource == portfolio.ResourceProfile {
		profile, err := s.service.Profile.Get(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, profile)
	}
	raw, err := s.service.Raw(resource)
	if err != nil {
		return err
	}
	items, err := raw.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, items)
}

func (s *session) get(ctx context.Context, out io.Writer, resource, id string) error {
	raw, err := s.service.Raw(resource)
	if err != nil {
		return err
	}
	item, err := raw.Get(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(out, item)
}

func (s *session) delete(ctx context.Context, out io.Writer, resource, id string) error {
	raw, err := s.service.Raw(resource)
	if err != nil {
		return err
	}
	if err := raw.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s/%s\n", resource, id)
	return nil
}

// open requests a site page carrying the mirrored cookie, the way the
// browser would after signing in, and reports where the gateway sent it.
func (s *session) open(ctx context.Context, out io.Writer, path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(s.cfg.SiteURL, "/")+path, nil)
	if err != nil {
		return err
	}
	hc := &http.Client{
		Jar:     s.jar,
		Timeout: s.cfg.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	fmt.Fprintf(out, "%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	if location := resp.Header.Get("Location"); location != "" {
		fmt.Fprintf(out, "-> %s\n", location)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
