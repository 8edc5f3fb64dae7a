// Package credentials holds the backoffice session's access/refresh token
// pair. A pair lives in exactly one storage scope, chosen at login, and the
// access token is mirrored into a cookie the site gateway can read.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"golang.org/x/oauth2"
)

// Storage slot names, shared by every Store implementation.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// ErrNotFound is returned by a Store that holds no credentials.
var ErrNotFound = fmt.Errorf("credentials %w", apperrors.ErrNotFound)

// Scope selects where a token pair is kept.
type Scope int

const (
	// ScopeSession keeps credentials for the life of the process.
	ScopeSession Scope = iota
	// ScopePersistent keeps credentials across restarts.
	ScopePersistent
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopePersistent:
		return "persistent"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope accepts "session" or "persistent".
func ParseScope(value string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "session":
		return ScopeSession, nil
	case "persistent":
		return ScopePersistent, nil
	default:
		return 0, fmt.Errorf("%q: %w", value, apperrors.ErrInvalidScope)
	}
}

// Store is one storage scope with two slots: access and refresh token.
type Store interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
	Clear(ctx context.Context) error
}

// IsNotFound reports whether err means "no credentials stored".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
