package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-portfolio/credentials"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/rs/zerolog/log"
)

// refreshKey is the only flight key: there is one credential pair per Client.
const refreshKey = "refresh"

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Refresh exchanges the stored refresh token for a new access token. Calls
// that overlap share one backend request and its outcome.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshAfter(ctx, "")
}

// refreshAfter returns a usable access token for a request that was
// rejected while carrying stale. If the stored token has already moved on
// from stale, it is returned without calling the backend.
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	ch := c.flight.DoChan(refreshKey, func() (any, error) {
		// the flight outlives any single caller
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		if stale != "" {
			if current, err := c.keeper.AccessToken(rctx); err == nil && current != stale {
				return current, nil
			}
		}
		return c.refresh(rctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh performs the backend exchange. Any failure clears all credentials.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.keeper.RefreshToken(ctx)
	if err != nil {
		if !credentials.IsNotFound(err) {
			log.Err(err).Msg("failed to read refresh token")
		}
		c.clear(ctx)
		return "", apperrors.ErrNoRefreshToken
	}

	access, err := c.exchange(ctx, refreshToken)
	if err != nil {
		c.clear(ctx)
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	if err := c.keeper.UpdateAccess(ctx, access); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}
	log.Debug().Msg("access token refreshed")
	return access, nil
}

func (c *Client) exchange(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(PathTokenRefresh), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.public.Do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newError(resp)
	}
	defer resp.Body.Close()

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}
	return out.Access, nil
}

func (c *Client) clear(ctx context.Context) {
	if err := c.keeper.Clear(ctx); err != nil {
		log.Err(err).Msg("failed to clear credentials after refresh failure")
	}
}
