package devapi_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-portfolio/devapi"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := devapi.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := issuer.CreateAccessToken("admin")
	require.NoError(t, err)
	refresh, err := issuer.CreateRefreshToken("admin")
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	sub, err := issuer.Verify(access, devapi.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "admin", sub)

	sub, err = issuer.Verify(refresh, devapi.TokenTypeRefresh)
	require.NoError(t, err)
	require.Equal(t, "admin", sub)
}

func TestIssuer_TokensAreUnique(t *testing.T) {
	issuer, err := devapi.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)

	a, err := issuer.CreateAccessToken("admin")
	require.NoError(t, err)
	b, err := issuer.CreateAccessToken("admin")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestIssuer_RejectsWrongType(t *testing.T) {
	issuer, err := devapi.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)

	refresh, err := issuer.CreateRefreshToken("admin")
	require.NoError(t, err)
	_, err = issuer.Verify(refresh, devapi.TokenTypeAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestIssuer_RejectsForeignSignature(t *testing.T) {
	mine, err := devapi.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)
	theirs, err := devapi.NewIssuer("other-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := theirs.CreateAccessToken("admin")
	require.NoError(t, err)
	_, err = mine.Verify(token, devapi.TokenTypeAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = mine.Verify("not-a-jwt", devapi.TokenTypeAccess)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestIssuer_Expiry(t *testing.T) {
	issuer, err := devapi.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := issuer.CreateAccessToken("admin")
	require.NoError(t, err)

	original := devapi.NowTimeFunc
	t.Cleanup(func() { devapi.NowTimeFunc = original })
	devapi.NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = issuer.Verify(token, devapi.TokenTypeAccess)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := devapi.NewIssuer("", time.Minute, time.Hour)
	require.Error(t, err)
}

func TestAccounts(t *testing.T) {
	accounts := devapi.NewAccounts()
	require.NoError(t, accounts.Add("admin", "s3cret"))
	require.Error(t, accounts.Add("", "x"))

	require.True(t, accounts.Check("admin", "s3cret"))
	require.False(t, accounts.Check("admin", "wrong"))
	require.False(t, accounts.Check("nobody", "s3cret"))
	require.True(t, accounts.Exists("admin"))
	require.False(t, accounts.Exists("nobody"))
}

func TestHashPassword(t *testing.T) {
	hash, err := devapi.HashPassword("password")
	require.NoError(t, err)
	require.NotEqual(t, "password", hash)
	require.True(t, devapi.CheckPasswordHash("password", hash))
	require.False(t, devapi.CheckPasswordHash("Password", hash))
}
