package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_DevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{IsDev: true}))

	log.Debug("feed loaded", "videos", 3)

	assert.Contains(t, buf.String(), "msg=\"feed loaded\"")
	assert.Contains(t, buf.String(), "videos=3")
}

func TestNewHandler_ProductionIsJSONAndSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{}))

	log.Debug("hidden")
	log.Info("visible", "id", "abc")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
	assert.Contains(t, buf.String(), `"id":"abc"`)
}

func TestNewHandler_MirrorsToLogFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "clipfeed.log")
	log := slog.New(newHandler(&buf, Options{LogFile: path}))

	log.Info("video uploaded", "id", "v1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"video uploaded"`)
	assert.Contains(t, buf.String(), `"msg":"video uploaded"`)
}
