package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWith(&buf, "info", "json")
	log.Info("hello", slog.String("country", "swe"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "swe", rec["country"])
}

func TestTextFormatRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWith(&buf, "warn", "")
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	require.False(t, strings.Contains(out, "dropped"))
	require.True(t, strings.Contains(out, "msg=kept"))
}
