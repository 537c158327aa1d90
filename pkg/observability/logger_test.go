package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger_JSONOutput verifies messages are emitted as structured JSON
func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("component", "auth").Info("login succeeded")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "login succeeded", entry["msg"])
	assert.Equal(t, "auth", entry["component"])
	assert.Equal(t, "INFO", entry["level"])
}

// TestLogger_LevelFiltering verifies debug is suppressed at info level
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}

// TestLogger_WithError verifies nil errors add no field
func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	same := logger.WithError(nil)
	assert.Same(t, logger, same)

	logger.WithError(assert.AnError).Error("boom")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

// TestParseLogLevel verifies level string parsing and the info default
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"nonsense", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLogLevel(tt.input), "input %q", tt.input)
	}
}
