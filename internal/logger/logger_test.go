package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSON(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Options{Level: level, Format: FormatJSON, Writer: &buf})
	require.NoError(t, err)
	return l, &buf
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

// TestLogger_LevelFiltering verifies that debug entries are dropped at the
// default info level.
func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newJSON(t, "")
	l.Debugf("hidden %d", 1)
	l.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestLogger_WithFields(t *testing.T) {
	l, buf := newJSON(t, "debug")
	l.WithFields(map[string]any{"alias": "loki"}).Debugf("looking up %s", "loki")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "loki", entry["alias"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "looking up loki", entry["message"])
}

func TestLogger_Error(t *testing.T) {
	l, buf := newJSON(t, "info")
	l.Error(errors.New("boom"), "failed")
	l.Error(nil, "no cause")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"error":"boom"`)
	assert.NotContains(t, lines[1], `"error"`)
	assert.Contains(t, lines[1], `"level":"error"`)
}

// TestLogger_Nil makes sure a nil logger is a silent no-op.
func TestLogger_Nil(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Info("x")
		l.Error(nil, "x")
		assert.Nil(t, l.WithFields(map[string]any{"a": 1}))
	})
}
