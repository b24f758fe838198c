package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "json", &buf)

	logger.Info("team.run.start", "run_id", "r-1", "agents", 4)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "team.run.start", entry["msg"])
	assert.Equal(t, "r-1", entry["run_id"])
	assert.EqualValues(t, 4, entry["agents"])
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "text", &buf)

	logger.Info("watch.stopped", "cycles", 3)

	out := buf.String()
	assert.Contains(t, out, "watch.stopped")
	assert.Contains(t, out, "cycles=3")
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "text", &buf)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "also kept")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("loud", "text", &buf)

	logger.Debug("dropped")
	logger.Info("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}

	// Must be safe to call with arbitrary arguments.
	logger.Debug("a", "k", 1)
	logger.Info("b")
	logger.Warn("c", "k")
	logger.Error("d", "k", "v")
}
