package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_File(t *testing.T) {
	defer func() { Logger = zap.NewNop() }()
	path := filepath.Join(t.TempDir(), "app.log")

	require.NoError(t, InitLogger(path, "info"))
	Logger.Debug("hidden")
	Logger.Info("Simulation finished", zap.Int("blocks", 10))
	require.NoError(t, Logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Simulation finished", entry["msg"])
	assert.Equal(t, float64(10), entry["blocks"])
	assert.Contains(t, entry, "time")
}

func TestInitLogger_BadLevel(t *testing.T) {
	assert.Error(t, InitLogger("", "loud"))
}
