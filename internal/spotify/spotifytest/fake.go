// Package spotifytest provides a fake Spotify accounts service and web API.
package spotifytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"
)

const (
	ClientID     = "client-id"
	ClientSecret = "client-secret"
	RedirectURI  = "http://localhost:8080/api/spotify-callback"
	RefreshToken = "long-lived-refresh"

	TopTracksBody = `{"items":[{"id":"1","name":"Track One","uri":"spotify:track:1","artists":[{"id":"a","name":"Artist"}],"album":{"id":"b","name":"Album","images":[]},"external_urls":{"spotify":"https://open.spotify.com/track/1"}}],"total":1,"limit":5,"offset":0,"href":"","next":null}`
)

// Server records every call it receives so tests can count them.
type Server struct {
	*httptest.Server

	TokenCalls   atomic.Int32
	RefreshCalls atomic.Int32
	ListingCalls atomic.Int32

	mu sync.Mutex
	// AccessToken is returned by the refresh grant.
	AccessToken string
	ExpiresIn   int
	// IssuedRefreshToken is returned by the authorization_code grant.
	IssuedRefreshToken string
	// TokenStatus and TokenBody override the token endpoint response when set.
	TokenStatus int
	TokenBody   string
	// ListingStatus and ListingBody override the listing response when set.
	ListingStatus int
	ListingBody   string
	// BeforeListing runs before the listing response is written.
	BeforeListing func()
	// RefreshDelay slows the refresh grant down.
	RefreshDelay time.Duration

	last Observed
}

// Observed is what the fake saw on the most recent calls.
type Observed struct {
	Grant       string
	Code        string
	RedirectURI string
	Bearer      string
	Query       string
	BasicAuthOK bool
}

func NewServer() *Server {
	s := &Server{AccessToken: "abc", ExpiresIn: 3600, IssuedRefreshToken: RefreshToken}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", s.token)
	mux.HandleFunc("GET /v1/me/top/tracks", s.topTracks)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) TokenURL() string {
	return s.URL + "/api/token"
}

func (s *Server) Set(f func(s *Server)) {
	s.mu.Lock()
	f(s)
	s.mu.Unlock()
}

func (s *Server) Last() Observed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.TokenCalls.Add(1)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, secret, ok := r.BasicAuth()
	grant := r.PostForm.Get("grant_type")
	if grant == "refresh_token" {
		s.RefreshCalls.Add(1)
	}

	s.mu.Lock()
	s.last.Grant = grant
	s.last.Code = r.PostForm.Get("code")
	s.last.RedirectURI = r.PostForm.Get("redirect_uri")
	s.last.BasicAuthOK = ok && id == ClientID && secret == ClientSecret
	status, body := s.TokenStatus, s.TokenBody
	access, expiresIn, delay, issued := s.AccessToken, s.ExpiresIn, s.RefreshDelay, s.IssuedRefreshToken
	s.mu.Unlock()

	if grant == "refresh_token" && delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	resp := map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
		"scope":        "user-top-read",
	}
	if grant == "authorization_code" {
		resp["refresh_token"] = issued
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) topTracks(w http.ResponseWriter, r *http.Request) {
	s.ListingCalls.Add(1)

	s.mu.Lock()
	s.last.Bearer = r.Header.Get("Authorization")
	s.last.Query = r.URL.RawQuery
	status, body, before := s.ListingStatus, s.ListingBody, s.BeforeListing
	s.mu.Unlock()

	if before != nil {
		before()
	}

	if status == 0 {
		status = http.StatusOK
	}
	if body == "" {
		body = TopTracksBody
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
