package config_test

import (
	"testing"
	"time"

	"github.com/Zachkp/portfolio-api/internal/config"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	for _, name := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "ADMIN_TOKEN", "SPOTIFY_REFRESH_TOKEN",
		"SPOTIFY_ACCOUNTS_URL", "SPOTIFY_API_URL", "SPOTIFY_TIMEOUT", "VISITS_DB", "VISITS_RETENTION",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("SPOTIFY_CLIENT_ID", "client")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_REDIRECT_URI", "http://localhost:8080/api/spotify-callback")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		c, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, "8080", c.Port)
		require.Equal(t, ":8080", c.Addr())
		require.Equal(t, "debug", c.Mode)
		require.Equal(t, "info", c.LogLevel)
		require.Equal(t, config.DefaultTokenURL, c.Spotify.TokenURL)
		require.Equal(t, config.DefaultAPIBaseURL, c.Spotify.APIBaseURL)
		require.Equal(t, 10*time.Second, c.Spotify.Timeout)
		require.Equal(t, 365*24*time.Hour, c.Visits.Retention)
		require.Empty(t, c.Spotify.RefreshToken)
		require.Empty(t, c.AdminToken)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", ":9000")
		t.Setenv("SPOTIFY_API_URL", "http://127.0.0.1:1234/")
		t.Setenv("SPOTIFY_TIMEOUT", "3s")
		t.Setenv("SPOTIFY_REFRESH_TOKEN", "refresh")
		t.Setenv("LOG_LEVEL", "DEBUG")

		c, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, ":9000", c.Addr())
		require.Equal(t, "http://127.0.0.1:1234", c.Spotify.APIBaseURL)
		require.Equal(t, 3*time.Second, c.Spotify.Timeout)
		require.Equal(t, "refresh", c.Spotify.RefreshToken)
		require.Equal(t, "debug", c.LogLevel)
	})

	t.Run("missing credentials fail fast", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "")
		t.Setenv("SPOTIFY_REDIRECT_URI", "")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "SPOTIFY_CLIENT_ID is required")
		require.Contains(t, err.Error(), "SPOTIFY_CLIENT_SECRET is required")
		require.Contains(t, err.Error(), "SPOTIFY_REDIRECT_URI is required")
	})

	t.Run("redirect uri must be a url", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SPOTIFY_REDIRECT_URI", "not a url")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "SPOTIFY_REDIRECT_URI is invalid")
	})

	t.Run("bad duration", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SPOTIFY_TIMEOUT", "soon")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "SPOTIFY_TIMEOUT")
	})

	t.Run("unknown gin mode", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GIN_MODE", "loud")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "GIN_MODE is invalid")
	})
}
