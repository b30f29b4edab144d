package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn"}, &buf)

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len(), "info should be filtered at warn level")

	l.Warn().Str("feed_url", "https://example.org/rss").Msg("feed failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "feed failed", entry["message"])
	assert.Equal(t, "https://example.org/rss", entry["feed_url"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "verbose"}, &buf)

	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestOpenOutputCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signage.log")
	w, err := openOutput(path)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.FileExists(t, path)
}
