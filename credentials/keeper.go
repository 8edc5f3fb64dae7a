package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// Keeper owns the two storage scopes and the cookie mirror. It is the only
// way credentials are written, and every write updates the store and the
// cookie under one lock, so no reader sees one without the other.
type Keeper struct {
	mu     sync.RWMutex
	stores map[Scope]Store
	mirror CookieMirror
}

// NewKeeper wires a session store, a persistent store and an optional
// mirror (nil disables mirroring).
func NewKeeper(session, persistent Store, mirror CookieMirror) *Keeper {
	if mirror == nil {
		mirror = noopMirror{}
	}
	return &Keeper{
		stores: map[Scope]Store{
			ScopeSession:    session,
			ScopePersistent: persistent,
		},
		mirror: mirror,
	}
}

// lookupOrder is the order scopes are consulted in when reading.
var lookupOrder = []Scope{ScopeSession, ScopePersistent}

// Login stores a new pair in scope, replacing any pair held in either scope.
func (k *Keeper) Login(ctx context.Context, scope Scope, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	store, ok := k.stores[scope]
	if !ok || store == nil {
		return fmt.Errorf("login: no store for %s scope", scope)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for other, s := range k.stores {
		if other == scope || s == nil {
			continue
		}
		if err := s.Clear(ctx); err != nil {
			return fmt.Errorf("login: failed to clear %s scope: %w", other, err)
		}
	}
	if err := store.Save(ctx, withExpiry(token)); err != nil {
		return fmt.Errorf("login: failed to save to %s scope: %w", scope, err)
	}
	k.mirror.SetAccessToken(token.AccessToken)
	return nil
}

// Token returns the active pair and the scope holding it.
func (k *Keeper) Token(ctx context.Context) (*oauth2.Token, Scope, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.lookup(ctx)
}

func (k *Keeper) lookup(ctx context.Context) (*oauth2.Token, Scope, error) {
	for _, scope := range lookupOrder {
		store := k.stores[scope]
		if store == nil {
			continue
		}
		token, err := store.Load(ctx)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, scope, err
		}
		return withExpiry(token), scope, nil
	}
	return nil, ScopeSession, ErrNotFound
}

// AccessToken returns the current access token, or ErrNotFound.
func (k *Keeper) AccessToken(ctx context.Context) (string, error) {
	token, _, err := k.Token(ctx)
	if err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", ErrNotFound
	}
	return token.AccessToken, nil
}

// RefreshToken returns the current refresh token, or ErrNotFound.
func (k *Keeper) RefreshToken(ctx context.Context) (string, error) {
	token, _, err := k.Token(ctx)
	if err != nil {
		return "", err
	}
	if token.RefreshToken == "" {
		return "", ErrNotFound
	}
	return token.RefreshToken, nil
}

// Scope reports which scope holds the active pair.
func (k *Keeper) Scope(ctx context.Context) (Scope, error) {
	_, scope, err := k.Token(ctx)
	return scope, err
}

// UpdateAccess replaces the access token in whichever scope holds the pair,
// keeping its refresh token.
func (k *Keeper) UpdateAccess(ctx context.Context, access string) error {
	if access == "" {
		return fmt.Errorf("access token is required")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	token, scope, err := k.lookup(ctx)
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	updated := &oauth2.Token{AccessToken: access, RefreshToken: token.RefreshToken}
	if err := k.stores[scope].Save(ctx, withExpiry(updated)); err != nil {
		return fmt.Errorf("update access token in %s scope: %w", scope, err)
	}
	k.mirror.SetAccessToken(access)
	return nil
}

// Clear removes credentials from both scopes and expires the cookie. The
// cookie is cleared even when a store fails.
func (k *Keeper) Clear(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for scope, store := range k.stores {
		if store == nil {
			continue
		}
		if err := store.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear %s scope: %w", scope, err))
		}
	}
	k.mirror.ClearAccessToken()
	return errors.Join(errs...)
}

func withExpiry(token *oauth2.Token) *oauth2.Token {
	t := *token
	if exp, ok := Expiry(t.AccessToken); ok {
		t.Expiry = exp
	}
	return &t
}
