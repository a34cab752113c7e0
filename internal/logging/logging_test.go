package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelift-connect/types"
)

func TestSetupLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, SetupLogger(false, "").GetLevel())
	assert.Equal(t, logrus.DebugLevel, SetupLogger(true, "").GetLevel())
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "connect.log")

	logger := SetupLoggerFromConfig(false, &types.Config{LogPath: logPath})
	logger.WithField("fleet_id", "fleet-123").Info("authorized")
	logger.Debug("below level")

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 1)
	assert.Equal(t, "authorized", entries[0]["msg"])
	assert.Equal(t, "fleet-123", entries[0]["fleet_id"])
	assert.Equal(t, "info", entries[0]["level"])
}

func TestSetupLoggerUnusablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	logger := SetupLogger(false, filepath.Join(blocker, "connect.log"))
	assert.Empty(t, logger.Hooks[logrus.InfoLevel])
}
