package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "warn", "json"), "scoring_service")

	log.Info().Msg("dropped")
	log.Warn().Str("submission_id", "s1").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "scoring_service", entry["component"])
	assert.Equal(t, "s1", entry["submission_id"])
}

func TestNewUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "loud", "pretty")

	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
