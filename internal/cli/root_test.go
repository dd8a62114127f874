package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdclean/internal/database"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(normalizeArgs(args))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"no exclude", []string{"--dry-run"}, []string{"--dry-run"}},
		{"space separated", []string{"--exclude", "a", "b", "--force"}, []string{"--exclude=a", "--exclude=b", "--force"}},
		{"single", []string{"--exclude", "a"}, []string{"--exclude=a"}},
		{"equals form untouched", []string{"--exclude=a,b"}, []string{"--exclude=a,b"}},
		{"followed by a flag", []string{"--exclude", "--force"}, []string{"--exclude=", "--force"}},
		{"trailing", []string{"--dry-run", "--exclude"}, []string{"--dry-run", "--exclude="}},
		{"after terminator", []string{"--", "--exclude", "a"}, []string{"--", "--exclude", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.in))
		})
	}
}

func TestListDefaultsDoesNotScan(t *testing.T) {
	out, err := execute(t, "", "--list-defaults", "--path", "/no/such/dir")
	require.NoError(t, err)

	assert.Contains(t, out, "Default excluded folders:")
	assert.Contains(t, out, "  - node_modules\n")
	assert.NotContains(t, out, "Scanning")
	assert.NotContains(t, out, "does not exist")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "mdclean 1.1.0\n", out)
}

func TestDryRunScenario(t *testing.T) {
	root := writeTree(t, "README.md", "src/lib/x.md", "node_modules/pkg/README.md")

	out, err := execute(t, "", "--path", root, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "DRY RUN MODE")
	assert.Contains(t, out, "Found 2 .md files to process:")
	assert.Contains(t, out, "DRY RUN: Would delete 2 .md files")
	assert.Contains(t, out, "Would skip 1 .md files in excluded folders")
	assert.FileExists(t, filepath.Join(root, "README.md"))
}

func TestIncludeAllWithExcludeScenario(t *testing.T) {
	root := writeTree(t, ".git/notes.md", "drafts/a.md", "archive/b.md", "c.md")

	out, err := execute(t, "yes\n", "--path", root, "--include-all", "--exclude", "drafts", "archive")
	require.NoError(t, err)

	assert.Contains(t, out, "Excluding folders: archive, drafts")
	assert.Contains(t, out, "Successfully deleted: 2 files")
	assert.NoFileExists(t, filepath.Join(root, ".git", "notes.md"))
	assert.NoFileExists(t, filepath.Join(root, "c.md"))
	assert.FileExists(t, filepath.Join(root, "drafts", "a.md"))
	assert.FileExists(t, filepath.Join(root, "archive", "b.md"))
}

func TestExcludeWithoutValuesKeepsFollowingFlag(t *testing.T) {
	root := writeTree(t, "a.md", "b.md")

	out, err := execute(t, "", "--path", root, "--force", "--exclude", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "DRY RUN: Would delete 2 .md files")
	assert.NotContains(t, out, "Excluding folders: --dry-run")
	assert.FileExists(t, filepath.Join(root, "a.md"))
	assert.FileExists(t, filepath.Join(root, "b.md"))

	out, err = execute(t, "", "--path", root, "--dry-run", "--exclude")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN: Would delete 2 .md files")
}

func TestExcludeNamesAreKeptExact(t *testing.T) {
	root := writeTree(t, "a,b/x.md", `odd"name/y.md`, "a/z.md")

	out, err := execute(t, "", "--path", root, "--include-all", "--dry-run", "--exclude", "a,b", `odd"name`)
	require.NoError(t, err)

	assert.Contains(t, out, `Excluding folders: a,b, odd"name`)
	assert.Contains(t, out, "Found 1 .md files to process:")
	assert.Contains(t, out, "a/z.md")
}

func TestMissingPathExitsCleanly(t *testing.T) {
	out, err := execute(t, "", "--path", "/no/such/dir")
	require.NoError(t, err)
	assert.Contains(t, out, "Directory /no/such/dir does not exist!")
}

func TestInvalidExclude(t *testing.T) {
	_, err := execute(t, "", "--path", t.TempDir(), "--exclude", "docs/old")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--exclude")
}

func TestUnknownFlag(t *testing.T) {
	_, err := execute(t, "", "--recursive")
	require.Error(t, err)
}

func TestConfigFileMergesWithFlags(t *testing.T) {
	root := writeTree(t, "a.md", "drafts/b.md", "archive/c.md")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	metricsPath := filepath.Join(dir, "metrics", "mdclean.prom")
	logPath := filepath.Join(dir, "mdclean.log")

	cfgPath := filepath.Join(dir, "mdclean.yaml")
	content := "path: " + root + "\nexclude: [drafts]\nhistory:\n  database_path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	out, err := execute(t, "",
		"--config", cfgPath,
		"--exclude", "archive",
		"--force",
		"--metrics-file", metricsPath,
		"--log-file", logPath,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "FORCE MODE")
	assert.Contains(t, out, "Successfully deleted: 1 files")
	assert.FileExists(t, filepath.Join(root, "drafts", "b.md"))
	assert.FileExists(t, filepath.Join(root, "archive", "c.md"))

	db, err := database.NewHistoryDB(dbPath)
	require.NoError(t, err)
	defer db.Close()
	deletions, err := db.GetRecentDeletions(10)
	require.NoError(t, err)
	require.Len(t, deletions, 1)
	assert.Equal(t, filepath.Join(root, "a.md"), deletions[0].Path)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "mdclean_files_deleted_total 1")

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "DELETE path="+filepath.Join(root, "a.md"))
	assert.Contains(t, string(logData), "[INFO] Run finished")
}
