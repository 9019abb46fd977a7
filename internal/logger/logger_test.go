package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("WARN")
	defer SetLevel("INFO")

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "WRN")
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	SetLevel("debug")
	defer SetLevel("INFO")

	SetLevel("verbose")
	assert.Equal(t, LevelDebug, GetLevel())
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("error")
	require.True(t, ok)
	assert.Equal(t, LevelError, level)
	assert.Equal(t, "ERROR", level.String())

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestConfigure_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dittodrive.log")
	require.NoError(t, Configure("debug", "json", path))
	defer SetOutput(os.Stdout)

	Debug("job %s started", "abc")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"job abc started"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestConfigure_UnknownFormat(t *testing.T) {
	err := Configure("info", "xml", "stdout")
	assert.Error(t, err)
}
