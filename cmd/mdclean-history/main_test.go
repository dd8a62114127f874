package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdclean/internal/database"
	"mdclean/internal/exitcodes"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := database.NewHistoryDB(path)
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	id, err := db.StartRun("/srv/docs", now)
	require.NoError(t, err)
	require.NoError(t, db.RecordDeletion(id, database.ActionDelete, "/srv/docs/a.md", "a.md", "", now))
	require.NoError(t, db.RecordDeletion(id, database.ActionError, "/srv/docs/b.md", "b.md", "permission denied", now))
	require.NoError(t, db.FinishRun(id, database.RunTotals{Mode: "DELETE", Found: 2, Deleted: 1, Failed: 1}, now))
	return path
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRecentAndFilters(t *testing.T) {
	path := seedHistory(t)

	code, out, _ := runCmd("--db", path, "--recent", "10")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "/srv/docs/a.md")
	assert.Contains(t, out, "permission denied")

	code, out, _ = runCmd("--db", path, "--action", "error")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "Records with action: ERROR")
	assert.Contains(t, out, "/srv/docs/b.md")
	assert.NotContains(t, out, "/srv/docs/a.md")

	code, out, _ = runCmd("--db", path, "--path", "%/a.md")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "/srv/docs/a.md")
}

func TestRunsAndStats(t *testing.T) {
	path := seedHistory(t)

	code, out, _ := runCmd("--db", path, "--runs", "5")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "DELETE")
	assert.Contains(t, out, "/srv/docs")

	code, out, _ = runCmd("--db", path, "--stats", "--json")
	require.Equal(t, exitcodes.Success, code)
	var stats database.HistoryStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 1, stats.TotalDeleted)
	assert.Equal(t, 1, stats.TotalErrors)
	assert.Equal(t, 1, stats.ByRoot["/srv/docs"])
}

func TestPruneKeepsRecentRuns(t *testing.T) {
	path := seedHistory(t)

	code, out, _ := runCmd("--db", path, "--prune", "--days", "7")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "Removed 0 records older than 7 days")
}

func TestUsageAndMissingDatabase(t *testing.T) {
	path := seedHistory(t)

	code, _, errOut := runCmd("--db", path)
	assert.Equal(t, exitcodes.RuntimeError, code)
	assert.Contains(t, errOut, "Examples:")

	code, _, errOut = runCmd("--db", filepath.Join(t.TempDir(), "missing.db"), "--recent", "1")
	assert.Equal(t, exitcodes.RuntimeError, code)
	assert.Contains(t, errOut, "History database")
}
