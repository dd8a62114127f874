package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"mdclean/internal/config"
	"mdclean/internal/safety"
	"mdclean/internal/scan"
)

func sampleResult() *scan.Result {
	return &scan.Result{
		Root: "/srv/docs",
		Candidates: []scan.Candidate{
			{Path: "/srv/docs/README.md", RelPath: "README.md"},
			{Path: "/srv/docs/guide/intro.md", RelPath: "guide/intro.md"},
		},
		Excluded: []scan.Candidate{
			{Path: "/srv/docs/node_modules/pkg/README.md", RelPath: "node_modules/pkg/README.md", Excluded: true, ExcludedBy: "node_modules"},
		},
	}
}

func TestScanListsCandidatesInOrder(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Scan(sampleResult(), config.BuildExclusionSet(true, []string{"node_modules", ".git"}), false)

	out := buf.String()
	assert.Contains(t, out, "Scanning: /srv/docs")
	assert.Contains(t, out, "Excluding folders: .git, node_modules")
	assert.Contains(t, out, "Skipped 1 .md files in excluded folders")
	assert.Contains(t, out, "Found 2 .md files to process:")
	assert.Contains(t, out, "   1. README.md")
	assert.Contains(t, out, "   2. guide/intro.md")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("README.md")), bytes.Index(buf.Bytes(), []byte("guide/intro.md")))
	assert.NotContains(t, out, "node_modules/pkg/README.md")
}

func TestScanVerboseItemizesExcluded(t *testing.T) {
	res := sampleResult()
	res.Skipped = []scan.SkippedEntry{{Path: "/srv/docs/locked", Err: errors.New("permission denied")}}

	var buf bytes.Buffer
	New(&buf).Scan(res, config.BuildExclusionSet(false, nil), true)

	out := buf.String()
	assert.Contains(t, out, "node_modules/pkg/README.md (in node_modules)")
	assert.Contains(t, out, "Could not read 1 entries")
	assert.Contains(t, out, "/srv/docs/locked: permission denied")
}

func TestScanNothingFound(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Scan(&scan.Result{Root: "/srv/empty"}, config.BuildExclusionSet(true, nil), false)

	out := buf.String()
	assert.Contains(t, out, "No .md files found in the directory (excluding ignored folders).")
	assert.NotContains(t, out, "Excluding folders")
	assert.NotContains(t, out, "Found")
}

func TestDryRunAndConfirmIntro(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.DryRun(sampleResult())
	r.ConfirmIntro(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "DRY RUN: Would delete 2 .md files")
	assert.Contains(t, out, "Would skip 1 .md files in excluded folders")
	assert.Contains(t, out, "Are you sure you want to delete all 2 .md files?")
	assert.Contains(t, out, "(1 files in excluded folders will be preserved)")
	assert.Equal(t, "Type 'yes' to confirm: ", r.ConfirmQuestion())
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name                      string
		deleted, failed, excluded int
		contains                  []string
		absent                    []string
	}{
		{
			name:     "all deleted",
			deleted:  3,
			contains: []string{"Summary:", "Successfully deleted: 3 files", "Operation completed successfully!"},
			absent:   []string{"Failed to delete", "Preserved in excluded folders"},
		},
		{
			name:     "partial failure",
			deleted:  1,
			failed:   2,
			excluded: 4,
			contains: []string{"Successfully deleted: 1 files", "Failed to delete: 2 files", "Preserved in excluded folders: 4 files"},
		},
		{
			name:     "nothing deleted",
			failed:   1,
			contains: []string{"Successfully deleted: 0 files", "Failed to delete: 1 files"},
			absent:   []string{"Operation completed successfully!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf).Summary(tt.deleted, tt.failed, tt.excluded)
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestRootProblem(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: /no/such/dir", safety.ErrPathNotFound), "Directory /no/such/dir does not exist!"},
		{fmt.Errorf("%w: /etc/hosts", safety.ErrNotADirectory), "/no/such/dir is not a directory!"},
		{errors.New("boom"), "Cannot scan /no/such/dir: boom"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		New(&buf).RootProblem("/no/such/dir", tt.err)
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestBannerModes(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Banner(true, true, true)

	out := buf.String()
	assert.Contains(t, out, "Markdown File Cleaner")
	assert.Contains(t, out, "DRY RUN MODE")
	assert.NotContains(t, out, "FORCE MODE")
	assert.Contains(t, out, "INCLUDE ALL MODE")
}

func TestDeleteLinesAndDefaults(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	c := scan.Candidate{Path: "/srv/docs/a.md", RelPath: "a.md"}
	r.Deleted(c)
	r.Failed(c, errors.New("permission denied"))
	r.Defaults([]string{".git", "node_modules"})
	r.Interrupted()
	r.UnexpectedError(errors.New("disk on fire"))

	out := buf.String()
	assert.Contains(t, out, "a.md\n")
	assert.Contains(t, out, "a.md: permission denied")
	assert.Contains(t, out, "Default excluded folders:\n  - .git\n  - node_modules\n")
	assert.Contains(t, out, "Operation cancelled by user (Ctrl+C)")
	assert.Contains(t, out, "Unexpected error: disk on fire")
}
