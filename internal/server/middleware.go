package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"

	recordTimeout = 5 * time.Second
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(ctxRequestID)).
			Msg("request")
	}
}

// untrackedPrefixes are never recorded as visits.
var untrackedPrefixes = []string{
	RouteAdminGroup + "/",
	RouteHealth,
	"/favicon",
}

// visitorTrackingMiddleware records visits in the background with hashed IPs
// and honours Do Not Track.
func visitorTrackingMiddleware(store VisitStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, userAgent := c.ClientIP(), c.GetHeader("User-Agent")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := store.Record(ctx, ip, userAgent, path); err != nil {
				logger.Warn().Err(err).Msg("error recording visitor")
			}
		}()
		c.Next()
	}
}

// adminAuthMiddleware requires "Authorization: Bearer <ADMIN_TOKEN>".
func adminAuthMiddleware(token string, store VisitStore, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			event := logger.Warn().Str("path", c.Request.URL.Path)
			if store != nil {
				event = event.Str("client", store.HashIP(c.ClientIP()))
			}
			event.Msg("rejected admin request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
