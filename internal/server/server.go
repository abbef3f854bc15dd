// Package server is the HTTP surface of the portfolio site: the Spotify
// bootstrap callback, the top tracks proxy and the admin API.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/Zachkp/portfolio-api/internal/spotify"
	"github.com/Zachkp/portfolio-api/internal/visits"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

//go:embed templates/*.html
var templateFS embed.FS

// SpotifyService is the part of spotify.Client the handlers use.
type SpotifyService interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	TopTracks(ctx context.Context) (json.RawMessage, error)
	Cache() *spotify.TokenCache
}

// VisitStore records and summarises visitor traffic.
type VisitStore interface {
	Record(ctx context.Context, ip, userAgent, path string) error
	Stats(ctx context.Context) (*visits.Stats, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
	HashIP(ip string) string
}

type Deps struct {
	Spotify SpotifyService
	// Visits is optional; nil disables tracking and the stats endpoint.
	Visits VisitStore
	Logger zerolog.Logger
}

type Options struct {
	Mode string
	// AdminToken enables the admin API when set.
	AdminToken string
	// VisitRetention is how long the admin cleanup keeps visits.
	VisitRetention time.Duration
}

type Server struct {
	engine     *gin.Engine
	spotify    SpotifyService
	visits     VisitStore
	adminToken string
	retention  time.Duration
	log        zerolog.Logger
}

func New(opts Options, deps Deps) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		engine:     gin.New(),
		spotify:    deps.Spotify,
		visits:     deps.Visits,
		adminToken: opts.AdminToken,
		retention:  opts.VisitRetention,
		log:        deps.Logger.With().Str("component", "server").Logger(),
	}

	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))
	s.engine.Use(
		requestIDMiddleware(),
		requestLogMiddleware(s.log),
		gin.CustomRecovery(s.recover),
	)
	if s.visits != nil {
		s.engine.Use(visitorTrackingMiddleware(s.visits, s.log))
	}

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.engine.GET(RouteHealth, s.health)
	s.engine.GET(RouteSpotifyCallback, s.spotifyCallback)
	s.engine.GET(RouteSpotifyTopTracks, s.spotifyTopTracks)

	if s.adminToken == "" {
		s.log.Info().Msg("ADMIN_TOKEN not set, admin API disabled")
		return
	}
	admin := s.engine.Group(RouteAdminGroup)
	admin.Use(adminAuthMiddleware(s.adminToken, s.visits, s.log))
	admin.GET(RouteAdminStats, s.adminStats)
	admin.GET(RouteAdminExportStats, s.adminExportStats)
	admin.POST(RouteAdminPrivacyCleanup, s.adminPrivacyCleanup)
	admin.DELETE(RouteAdminSpotifyToken, s.adminExpireSpotifyToken)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgUnknownError})
}

// errorMessage is the text clients see for a failure.
func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return msgUnknownError
	}
	return err.Error()
}
