package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format Format
		want   string
	}{
		{"text", slog.LevelInfo, FormatText, "msg=hello"},
		{"json", slog.LevelDebug, FormatJSON, `"msg":"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(tt.level, tt.format, &buf).Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	defer InitLogger(slog.LevelWarn, FormatText, os.Stderr)

	var buf bytes.Buffer
	InitLogger(slog.LevelWarn, FormatText, &buf)
	GetLogger().Info("hidden")
	GetLogger().Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestComponent(t *testing.T) {
	defer InitLogger(slog.LevelWarn, FormatText, os.Stderr)

	var buf bytes.Buffer
	InitLogger(slog.LevelDebug, FormatJSON, &buf)
	Component("acbf").Debug("created reference section", "count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "acbf", entry["component"])
	assert.Equal(t, "created reference section", entry["msg"])
	assert.EqualValues(t, 2, entry["count"])

	// RFC3339 timestamps have no fractional seconds
	ts, ok := entry["time"].(string)
	require.True(t, ok)
	assert.False(t, strings.Contains(ts, "."), "timestamp %q", ts)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
