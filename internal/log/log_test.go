package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONOutputAndLevels(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, FormatJSON)
	SetLevel(LevelInfo)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("hidden", "k", 1)
	require.Zero(t, buf.Len())

	Info("parsed", "pages", 2, "path", "a.mw")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "parsed", entry["message"])
	require.Equal(t, float64(2), entry["pages"])
	require.Equal(t, "a.mw", entry["path"])

	buf.Reset()
	Error("failed", errors.New("boom"), "id", "x", "dangling")
	require.True(t, strings.Contains(buf.String(), `"error":"boom"`))
	require.True(t, strings.Contains(buf.String(), `"id":"x"`))
	require.False(t, strings.Contains(buf.String(), "dangling"))

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("shown")
	require.True(t, strings.Contains(buf.String(), `"level":"debug"`))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelError, ParseLevel(" Error "))
	require.Equal(t, LevelInfo, ParseLevel("warn"))
	require.Equal(t, LevelInfo, ParseLevel(""))
}
