package credentials_test

import (
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-portfolio/credentials"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const siteURL = "http://localhost:8080"

type keeperFixture struct {
	keeper     *credentials.Keeper
	session    *credentials.MemoryStore
	persistent *credentials.MemoryStore
	jar        *cookiejar.Jar
}

func newKeeperFixture(t *testing.T) keeperFixture {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	mirror, err := credentials.NewJarMirror(jar, siteURL, false)
	require.NoError(t, err)

	f := keeperFixture{
		session:    credentials.NewMemoryStore(),
		persistent: credentials.NewMemoryStore(),
		jar:        jar,
	}
	f.keeper = credentials.NewKeeper(f.session, f.persistent, mirror)
	return f
}

func (f keeperFixture) cookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(siteURL + "/en/backoffice")
	require.NoError(t, err)
	for _, c := range f.jar.Cookies(u) {
		if c.Name == credentials.AccessTokenCookie {
			return c.Value
		}
	}
	return ""
}

func TestKeeper_LoginWritesChosenScopeOnly(t *testing.T) {
	ctx := context.Background()
	f := newKeeperFixture(t)

	require.NoError(t, f.keeper.Login(ctx, credentials.ScopeSession, &oauth2.Token{AccessToken: "S1", RefreshToken: "SR"}))
	require.Equal(t, "S1", f.cookie(t))

	require.NoError(t, f.keeper.Login(ctx, credentials.ScopePersistent, &oauth2.Token{AccessToken: "P1", RefreshToken: "PR"}))

	_, err := f.session.Load(ctx)
	require.True(t, credentials.IsNotFound(err), "session scope should be wiped")

	token, scope, err := f.keeper.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.ScopePersistent, scope)
	require.Equal(t, "P1", token.AccessToken)
	require.Equal(t, "PR", token.RefreshToken)
	require.Equal(t, "P1", f.cookie(t))
}

func TestKeeper_LookupPrefersSession(t *testing.T) {
	ctx := context.Background()
	f := newKeeperFixture(t)

	require.NoError(t, f.persistent.Save(ctx, &oauth2.Token{AccessToken: "P", RefreshToken: "PR"}))
	require.NoError(t, f.session.Save(ctx, &oauth2.Token{AccessToken: "S", RefreshToken: "SR"}))

	access, err := f.keeper.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "S", access)

	scope, err := f.keeper.Scope(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.ScopeSession, scope)
}

func TestKeeper_UpdateAccessKeepsScopeAndRefresh(t *testing.T) {
	ctx := context.Background()
	f := newKeeperFixture(t)

	require.NoError(t, f.keeper.Login(ctx, credentials.ScopePersistent, &oauth2.Token{AccessToken: "A1", RefreshToken: "R"}))
	require.NoError(t, f.keeper.UpdateAccess(ctx, "A2"))

	token, err := f.persistent.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", token.AccessToken)
	require.Equal(t, "R", token.RefreshToken)
	require.Equal(t, "A2", f.cookie(t))

	_, err = f.session.Load(ctx)
	require.True(t, credentials.IsNotFound(err))
}

func TestKeeper_UpdateAccessWithoutLogin(t *testing.T) {
	f := newKeeperFixture(t)
	err := f.keeper.UpdateAccess(context.Background(), "A")
	require.True(t, credentials.IsNotFound(err))
}

func TestKeeper_ClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	f := newKeeperFixture(t)

	require.NoError(t, f.keeper.Login(ctx, credentials.ScopeSession, &oauth2.Token{AccessToken: "A", RefreshToken: "R"}))
	require.NoError(t, f.keeper.Clear(ctx))

	_, err := f.keeper.AccessToken(ctx)
	require.True(t, credentials.IsNotFound(err))
	_, err = f.keeper.RefreshToken(ctx)
	require.True(t, credentials.IsNotFound(err))
	require.Empty(t, f.cookie(t))
}

type failingStore struct {
	credentials.Store
}

func (failingStore) Clear(context.Context) error { return errors.New("disk on fire") }

func TestKeeper_ClearStillExpiresCookieOnStoreError(t *testing.T) {
	ctx := context.Background()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	mirror, err := credentials.NewJarMirror(jar, siteURL, false)
	require.NoError(t, err)

	session := credentials.NewMemoryStore()
	keeper := credentials.NewKeeper(session, failingStore{credentials.NewMemoryStore()}, mirror)
	require.NoError(t, session.Save(ctx, &oauth2.Token{AccessToken: "A"}))
	mirror.SetAccessToken("A")

	require.Error(t, keeper.Clear(ctx))

	u, _ := url.Parse(siteURL)
	require.Empty(t, jar.Cookies(u))
	_, err = session.Load(ctx)
	require.True(t, credentials.IsNotFound(err))
}

func TestKeeper_TokenCarriesJWTExpiry(t *testing.T) {
	ctx := context.Background()
	f := newKeeperFixture(t)

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	require.NoError(t, f.keeper.Login(ctx, credentials.ScopeSession, &oauth2.Token{AccessToken: access, RefreshToken: "R"}))

	token, _, err := f.keeper.Token(ctx)
	require.NoError(t, err)
	require.True(t, token.Expiry.Equal(exp))
	require.True(t, token.Valid())
}

func TestExpiry_OpaqueToken(t *testing.T) {
	_, ok := credentials.Expiry("not-a-jwt")
	require.False(t, ok)
}
