package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{}))

	log.Debug("hidden")
	log.Info("proof submitted", "goal_id", "g1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "proof submitted", record["msg"])
	assert.Equal(t, "g1", record["goal_id"])
}

func TestHandlerDevelopmentIncludesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{Development: true}))

	log.Debug("streak computed", "current", 2)

	assert.Contains(t, buf.String(), "streak computed")
	assert.Contains(t, buf.String(), "current=2")
}

func TestHandlerMirrorsToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "proovit.log")
	log := slog.New(newHandler(&buf, Options{LogFile: path}))

	log.Error("cleanup failed", "path", "u/g/proof.jpg")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cleanup failed")
	assert.Contains(t, buf.String(), "cleanup failed")
}
