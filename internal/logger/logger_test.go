package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAreStructured(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "WebhookManager")

	log.Error("Falha ao entregar", "error", errors.New("boom"), "latency", 1500*time.Millisecond, "status", 503)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "WebhookManager", entry["component"])
	assert.Equal(t, "Falha ao entregar", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(1500), entry["latency"])
	assert.Equal(t, float64(503), entry["status"])
}

func TestWithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "").With("sessionID", "s1")

	log.Info("ok", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s1", entry["sessionID"])
	assert.NotContains(t, entry, "dangling")
	assert.NotContains(t, entry, "component")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}
