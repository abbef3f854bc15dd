package spotify

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Op names the upstream call that failed.
type Op string

const (
	OpExchange  Op = "token exchange"
	OpRefresh   Op = "token refresh"
	OpTopTracks Op = "top tracks"
)

var (
	ErrNoRefreshToken   = errors.New("SPOTIFY_REFRESH_TOKEN is not configured")
	ErrMalformedListing = errors.New("spotify: top tracks response has no items")
)

// UpstreamError is a non-2xx answer from the accounts service or the web API.
type UpstreamError struct {
	Op         Op
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	switch e.Op {
	case OpRefresh:
		return "Failed to refresh token: " + string(e.Body)
	case OpTopTracks:
		return "Spotify API error: " + string(e.Body)
	default:
		return fmt.Sprintf("%s rejected (%d): %s", e.Op, e.StatusCode, e.Body)
	}
}

// IsUpstream reports whether err carries an upstream rejection.
func IsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func wrapTokenError(op Op, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &UpstreamError{Op: op, StatusCode: re.Response.StatusCode, Body: re.Body}
	}
	return fmt.Errorf("%s: %w", op, err)
}
