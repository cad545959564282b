package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "json", "debug")
	t.Cleanup(func() { Setup(os.Stderr, "json", "info") })

	Info("catalog loaded", "events", 42, "path", "events.json")
	Error("fetch failed", errors.New("boom"), "id", "meetups")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "catalog loaded", first["message"])
	assert.EqualValues(t, 42, first["events"])
	assert.Equal(t, "events.json", first["path"])
	assert.Contains(t, first, "time")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "meetups", second["id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "json", "warn")
	t.Cleanup(func() { Setup(os.Stderr, "json", "info") })

	Debug("hidden")
	Info("hidden too")
	Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")

	SetLevel(LevelDebug)
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestOddKeyValuesAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "json", "info")
	t.Cleanup(func() { Setup(os.Stderr, "json", "info") })

	Info("odd", "a", 1, "dangling", 7, 8)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.EqualValues(t, 1, line["a"])
	assert.EqualValues(t, 7, line["dangling"])
	assert.Len(t, line, 5) // level, time, message, a, dangling
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("Warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
