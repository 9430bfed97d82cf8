package telemetry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/alumnet/modguard/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetLogger(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	manager := telemetry.NewManager(telemetry.ServiceServer, logDir, &config.Debug{
		LogLevel:      "info",
		MaxLogsToKeep: 3,
		MaxLogLines:   100,
	})
	defer manager.Stop()

	logger, err := manager.GetLogger()
	require.NoError(t, err)

	logger.Info("Server started")
	logger.Debug("Hidden below level")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(logDir, "latest", "server.log"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "Server started")
	assert.Contains(t, content, manager.GetInstanceID())
	assert.NotContains(t, content, "Hidden below level")
	assert.True(t, strings.HasPrefix(filepath.Base(manager.GetCurrentSessionDir()), "20"))
}

func TestManager_RotatesSessions(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	for _, name := range []string{"2026-01-01_00-00-00_a", "2026-01-02_00-00-00_b", "2026-01-03_00-00-00_c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(logDir, name), os.ModePerm))
	}

	manager := telemetry.NewManager(telemetry.ServiceCLI, logDir, &config.Debug{
		LogLevel:      "debug",
		MaxLogsToKeep: 2,
		MaxLogLines:   100,
	})
	defer manager.Stop()

	_, err := manager.GetLogger()
	require.NoError(t, err)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)

	sessions := 0
	for _, entry := range entries {
		if entry.IsDir() {
			sessions++
		}
	}
	assert.Equal(t, 2, sessions)
}

func TestManager_InvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(telemetry.ServiceServer, t.TempDir(), &config.Debug{
		LogLevel:      "loud",
		MaxLogsToKeep: 1,
		MaxLogLines:   10,
	})
	defer manager.Stop()

	_, err := manager.GetLogger()
	require.Error(t, err)
}
