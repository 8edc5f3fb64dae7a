package apiclient

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type retriedKey struct{}

// markRetried flags ctx as belonging to a request that has already been
// replayed after a refresh.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func retried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// Transport is an [http.RoundTripper] that attaches the stored access token
// and, on a first 401, replays the request once with a refreshed token.
type Transport struct {
	client *Client
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	sent := t.attachToken(ctx)
	resp, err := t.client.base.RoundTrip(withBearer(req, sent))
	if err != nil {
		return nil, err
	}
	return t.onResponse(req, sent, resp)
}

// attachToken returns the current access token, or "" when none is stored.
func (t *Transport) attachToken(ctx context.Context) string {
	token, err := t.client.keeper.AccessToken(ctx)
	if err != nil {
		return ""
	}
	return token
}

// onResponse decides whether a response is final. Anything but a first 401
// is returned as is; so is the 401 itself when no fresh token can be had.
func (t *Transport) onResponse(req *http.Request, sent string, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()
	if resp.StatusCode != http.StatusUnauthorized || retried(ctx) {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		log.Warn().Str("method", req.Method).Str("url", req.URL.String()).Msg("401 on a request whose body cannot be replayed")
		return resp, nil
	}

	token, err := t.client.refreshAfter(ctx, sent)
	if err != nil {
		log.Debug().Err(err).Str("url", req.URL.String()).Msg("refresh failed, returning original 401")
		return resp, nil
	}

	replay := withBearer(req.WithContext(markRetried(ctx)), token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			log.Err(err).Str("url", req.URL.String()).Msg("failed to rewind request body")
			return resp, nil
		}
		replay.Body = body
	}

	drain(resp)
	return t.client.base.RoundTrip(replay)
}

// withBearer clones req and sets the bearer header; an empty token leaves
// the clone unauthenticated.
func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
