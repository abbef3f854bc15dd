package server

import (
	"net/http"
	"time"

	"github.com/Zachkp/portfolio-api/internal/visits"
	"github.com/gin-gonic/gin"
)

const retentionDefault = 365 * 24 * time.Hour

func (s *Server) requireVisits(c *gin.Context) bool {
	if s.visits == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "visitor tracking disabled"})
		return false
	}
	return true
}

func (s *Server) loadStats(c *gin.Context) (*visits.Stats, bool) {
	stats, err := s.visits.Stats(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("error loading admin stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return nil, false
	}
	return stats, true
}

func (s *Server) adminStats(c *gin.Context) {
	if !s.requireVisits(c) {
		return
	}
	if stats, ok := s.loadStats(c); ok {
		c.JSON(http.StatusOK, stats)
	}
}

// adminExportStats serves the stats as a file download for backups.
func (s *Server) adminExportStats(c *gin.Context) {
	if !s.requireVisits(c) {
		return
	}
	stats, ok := s.loadStats(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", "attachment; filename=visit-stats.json")
	s.log.Info().Msg("visit stats exported by admin")
	c.JSON(http.StatusOK, stats)
}

// adminPrivacyCleanup drops visits older than the retention window now
// instead of waiting for the next restart.
func (s *Server) adminPrivacyCleanup(c *gin.Context) {
	if !s.requireVisits(c) {
		return
	}
	retention := s.retention
	if retention <= 0 {
		retention = retentionDefault
	}
	deleted, err := s.visits.Cleanup(c.Request.Context(), retention)
	if err != nil {
		s.log.Error().Err(err).Msg("privacy cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// adminExpireSpotifyToken makes the next top tracks request refresh the
// access token.
func (s *Server) adminExpireSpotifyToken(c *gin.Context) {
	s.spotify.Cache().Expire()
	s.log.Info().Msg("spotify access token expired by admin")
	c.JSON(http.StatusOK, gin.H{"message": "access token expired"})
}
