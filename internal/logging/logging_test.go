package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Zachkp/portfolio-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("release mode writes json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewWithWriter(&buf, "info", gin.ReleaseMode)

		logger.Info().Str("component", "test").Msg("hello")

		var event map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
		require.Equal(t, "hello", event["message"])
		require.Equal(t, "test", event["component"])
		require.Equal(t, "info", event["level"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewWithWriter(&buf, "warn", gin.ReleaseMode)

		logger.Info().Msg("dropped")
		require.Zero(t, buf.Len())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewWithWriter(&buf, "chatty", gin.ReleaseMode)

		logger.Debug().Msg("dropped")
		require.Zero(t, buf.Len())
		logger.Info().Msg("kept")
		require.Contains(t, buf.String(), "kept")
	})
}
