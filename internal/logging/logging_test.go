package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdclean/internal/config"
)

func TestLeveledLoggerFormatsLevelAndPairs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLeveled(log.New(&buf, "", 0))

	logger.Info("Scan complete", "candidates", 3)
	logger.Warn("Skipping unreadable entry", "path", "/r/x")
	logger.Error("Failed to delete", "error", "boom")
	logger.Debug("File excluded")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[INFO] Scan complete candidates 3", lines[0])
	assert.Equal(t, "[WARN] Skipping unreadable entry path /r/x", lines[1])
	assert.Equal(t, "[ERROR] Failed to delete error boom", lines[2])
	assert.Equal(t, "[DEBUG] File excluded", lines[3])
}

func TestNilLoggerDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLeveled(nil).Info("nothing to see")
	})
}

func TestNewWithConfigWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "mdclean.log")

	logger, closer := NewWithConfig(config.LoggingCfg{File: logFile}, &console)
	logger.Println("hello")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "hello")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewWithoutSinksDiscards(t *testing.T) {
	logger, closer := NewWithConfig(config.LoggingCfg{}, nil)
	logger.Println("dropped")
	assert.NoError(t, closer.Close())
}

func TestRotateLogsIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "mdclean.log")
	require.NoError(t, os.WriteFile(logPath, []byte("old"), 0o644))

	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(logPath, old, old))

	rotateLogsIfNeeded(logPath, 30, time.Now())

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err), "current log should have been rotated away")

	// The rotated file keeps the old mtime so it is cleaned up right away
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRotateKeepsFreshLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mdclean.log")
	require.NoError(t, os.WriteFile(logPath, []byte("fresh"), 0o644))

	rotateLogsIfNeeded(logPath, 30, time.Now())

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}
