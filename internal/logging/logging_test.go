package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("resolved schema", "crate", "esp-hal-embassy")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "confgate")
	assert.Contains(t, out, "resolved schema")
	assert.Contains(t, out, "esp-hal-embassy")
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "error", Verbose: true})
	require.NoError(t, err)

	logger.Debug("option inactive", "option", "timer-queue")
	assert.Contains(t, buf.String(), "option inactive")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: FormatJSON, Level: "warn"})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("unknown override", "name", "ESP_HAL_EMBASSY_CONFIG_BOGUS")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "unknown override", record["msg"])
	assert.Equal(t, "ESP_HAL_EMBASSY_CONFIG_BOGUS", record["name"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.ErrorContains(t, err, "invalid log format")

	_, err = New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(t.Context(), slog.LevelError))
}
