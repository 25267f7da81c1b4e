package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNewWithWriter(t *testing.T) {
	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(Config{Level: "warn", NoColor: true}, &buf)

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("writes rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "price-watch.log")
		cfg := DefaultConfig()
		cfg.FilePath = path
		cfg.NoColor = true

		var buf bytes.Buffer
		logger := NewWithWriter(cfg, &buf)
		logger.Info().Str("url", "https://example.com").Msg("checked")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"url":"https://example.com"`)
		assert.Contains(t, buf.String(), "checked")
	})
}
