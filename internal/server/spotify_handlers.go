package server

import (
	"encoding/json"
	"html"
	"html/template"
	"net/http"

	"github.com/Zachkp/portfolio-api/internal/spotify"
	"github.com/gin-gonic/gin"
)

type callbackQuery struct {
	Code string `form:"code" binding:"required"`
}

// spotifyCallback finishes the one-time authorization bootstrap and shows the
// refresh token so the owner can paste it into their configuration.
func (s *Server) spotifyCallback(c *gin.Context) {
	var q callbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoAuthorizationCode})
		return
	}

	tok, err := s.spotify.Exchange(c.Request.Context(), q.Code)
	if err != nil {
		if ue, ok := spotify.IsUpstream(err); ok {
			s.log.Warn().Int("status", ue.StatusCode).Msg("authorization code rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": upstreamPayload(ue.Body)})
			return
		}
		s.log.Error().Err(err).Msg("authorization code exchange failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return
	}

	s.log.Info().Msg("authorization code exchanged, refresh token issued")
	c.Header("Cache-Control", "no-store")
	// only markup characters are escaped so the token reads exactly as issued
	c.HTML(http.StatusOK, "spotify-callback.html", gin.H{
		"RefreshToken": template.HTML(html.EscapeString(tok.RefreshToken)),
	})
}

func (s *Server) spotifyTopTracks(c *gin.Context) {
	body, err := s.spotify.TopTracks(c.Request.Context())
	if err != nil {
		event := s.log.Error().Err(err)
		if ue, ok := spotify.IsUpstream(err); ok {
			event = event.Str("op", string(ue.Op)).Int("upstream_status", ue.StatusCode)
		}
		event.Msg("top tracks request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// upstreamPayload relays a JSON error body as JSON and anything else as text.
func upstreamPayload(body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
