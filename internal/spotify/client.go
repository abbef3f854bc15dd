// Package spotify talks to the Spotify accounts service and web API on
// behalf of the site owner.
//
// The owner authorizes once through the callback bootstrap, which yields a
// long-lived refresh token. Every later request trades that refresh token
// for a short-lived access token, cached in a TokenCache until it expires.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	TopTracksLimit     = 5
	TopTracksTimeRange = "medium_term"

	maxBodyBytes = 1 << 20
)

// Options define client options.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string

	TokenURL   string
	APIBaseURL string

	// HTTPClient is used for every upstream call. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// Cache holds the access token. If nil, a fresh cache on time.Now is created.
	Cache *TokenCache

	Logger zerolog.Logger
}

// Client exchanges authorization codes, refreshes the access token and
// fetches the owner's top tracks.
type Client struct {
	oauth        *oauth2.Config
	refreshToken string
	apiBaseURL   string
	httpClient   *http.Client
	cache        *TokenCache
	group        singleflight.Group
	log          zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Cache == nil {
		opts.Cache = NewTokenCache(nil)
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		refreshToken: opts.RefreshToken,
		apiBaseURL:   opts.APIBaseURL,
		httpClient:   opts.HTTPClient,
		cache:        opts.Cache,
		log:          opts.Logger.With().Str("component", "spotify").Logger(),
	}
}

// Cache exposes the token cache so operators can force a refresh.
func (c *Client) Cache() *TokenCache {
	return c.cache
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Exchange trades a one-time authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, wrapTokenError(OpExchange, err)
	}
	if tok.RefreshToken == "" {
		c.log.Warn().Msg("authorization code exchange returned no refresh token")
	}
	return tok, nil
}

// AccessToken returns the cached access token, refreshing it first when it
// is unset or expired. Concurrent callers share one refresh.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if value, ok := c.cache.Get(); ok {
		return value, nil
	}
	if c.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("access_token", func() (any, error) {
		// another flight may have finished between the miss above and now
		if value, ok := c.cache.Get(); ok {
			return value, nil
		}
		return c.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		value, isStr := res.Val.(string)
		if !isStr {
			return "", fmt.Errorf("non-string result: type:%[1]T value:%[1]v", res.Val)
		}
		return value, nil
	}
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	begin := time.Now()

	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: c.refreshToken})
	tok, err := src.Token()
	if err != nil {
		c.log.Warn().Err(err).Msg("access token refresh failed")
		return "", wrapTokenError(OpRefresh, err)
	}

	lifetime := time.Duration(0)
	if !tok.Expiry.IsZero() {
		lifetime = max(time.Until(tok.Expiry), 0)
	}
	expiresAt := c.cache.now().Add(lifetime)
	c.cache.Put(tok.AccessToken, expiresAt)

	c.log.Info().
		Dur("elapsed", time.Since(begin)).
		Time("expires_at", expiresAt).
		Msg("refreshed access token")

	return tok.AccessToken, nil
}

// TopTracks fetches the owner's top tracks and returns the upstream JSON
// body unchanged once it has been checked against TopTracksPage.
func (c *Client) TopTracks(ctx context.Context) (json.RawMessage, error) {
	accessToken, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"limit":      {strconv.Itoa(TopTracksLimit)},
		"time_range": {TopTracksTimeRange},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/v1/me/top/tracks?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpTopTracks, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpTopTracks, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", OpTopTracks, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			// the token was refused, so the next request refreshes it unless
			// another request already replaced it
			c.cache.ExpireIf(accessToken)
		}
		return nil, &UpstreamError{Op: OpTopTracks, StatusCode: resp.StatusCode, Body: body}
	}

	var page TopTracksPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", OpTopTracks, err)
	}
	if page.Items == nil {
		return nil, ErrMalformedListing
	}

	c.log.Debug().Int("items", len(page.Items)).Msg("fetched top tracks")
	return json.RawMessage(body), nil
}
