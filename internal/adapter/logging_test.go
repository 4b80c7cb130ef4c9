package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesJSONAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "backlog.log")

	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "warn"}, "1.2.3")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "kind", "game")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"kind":"game"`)
	assert.Contains(t, string(data), `"app":"backlog"`)
	assert.Contains(t, string(data), `"version":"1.2.3"`)
	assert.Contains(t, string(data), `"pid":`)
}

func TestSetupLoggerExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, closer, err := SetupLogger(&LoggingConfig{File: "~/backlog.log"}, "dev")
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	assert.FileExists(t, filepath.Join(home, "backlog.log"))
}
