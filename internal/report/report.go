package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mdclean/internal/config"
	"mdclean/internal/safety"
	"mdclean/internal/scan"
)

type styles struct {
	title lipgloss.Style
	mode  lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
}

// Reporter renders everything the user sees. Colour is decided by the
// renderer from out, so plain writers get plain text.
type Reporter struct {
	out    io.Writer
	styles styles
}

func New(out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{
		out: out,
		styles: styles{
			title: r.NewStyle().Bold(true),
			mode:  r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
			ok:    r.NewStyle().Foreground(lipgloss.Color("10")),
			fail:  r.NewStyle().Foreground(lipgloss.Color("9")),
			warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
			muted: r.NewStyle().Faint(true),
		},
	}
}

// Writer is where prompts should be written so they interleave correctly.
func (r *Reporter) Writer() io.Writer {
	return r.out
}

func (r *Reporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Banner prints the header and the active modes.
func (r *Reporter) Banner(dryRun, force, includeAll bool) {
	r.printf("%s\n%s\n", r.styles.title.Render("Markdown File Cleaner"), strings.Repeat("=", 40))
	if dryRun {
		r.printf("%s\n", r.styles.mode.Render("DRY RUN MODE - No files will be deleted"))
	}
	if force && !dryRun {
		r.printf("%s\n", r.styles.mode.Render("FORCE MODE - No confirmation prompt"))
	}
	if includeAll {
		r.printf("%s\n", r.styles.mode.Render("INCLUDE ALL MODE - No default exclusions"))
	}
	r.printf("\n")
}

// RootProblem reports a root that cannot be scanned.
func (r *Reporter) RootProblem(path string, err error) {
	switch {
	case errors.Is(err, safety.ErrPathNotFound):
		r.printf("%s\n", r.styles.fail.Render(fmt.Sprintf("Directory %s does not exist!", path)))
	case errors.Is(err, safety.ErrNotADirectory):
		r.printf("%s\n", r.styles.fail.Render(fmt.Sprintf("%s is not a directory!", path)))
	default:
		r.printf("%s\n", r.styles.fail.Render(fmt.Sprintf("Cannot scan %s: %v", path, err)))
	}
}

// Scan lists what was found. Excluded files are itemized when verbose.
func (r *Reporter) Scan(res *scan.Result, excl config.ExclusionSet, verbose bool) {
	r.printf("Scanning: %s\n", res.Root)

	if excl.Len() > 0 {
		r.printf("Excluding folders: %s\n", strings.Join(excl.Sorted(), ", "))
	}

	if n := len(res.Excluded); n > 0 {
		r.printf("%s\n", r.styles.muted.Render(fmt.Sprintf("Skipped %d %s files in excluded folders", n, scan.Extension)))
		if verbose {
			for _, c := range res.Excluded {
				r.printf("     - %s (%s)\n", displayPath(c), excludedReason(c))
			}
		}
	}

	if n := len(res.Skipped); n > 0 {
		r.printf("%s\n", r.styles.warn.Render(fmt.Sprintf("Could not read %d entries", n)))
		if verbose {
			for _, s := range res.Skipped {
				r.printf("     - %s\n", s.Describe())
			}
		}
	}

	if len(res.Candidates) == 0 {
		r.printf("%s\n", r.styles.ok.Render(fmt.Sprintf("No %s files found in the directory (excluding ignored folders).", scan.Extension)))
		return
	}

	r.printf("Found %d %s files to process:\n", len(res.Candidates), scan.Extension)
	for i, c := range res.Candidates {
		r.printf("  %2d. %s\n", i+1, displayPath(c))
	}
}

// DryRun states what a real run would have done.
func (r *Reporter) DryRun(res *scan.Result) {
	r.printf("\n%s\n", r.styles.mode.Render(fmt.Sprintf("DRY RUN: Would delete %d %s files", len(res.Candidates), scan.Extension)))
	if n := len(res.Excluded); n > 0 {
		r.printf("         Would skip %d %s files in excluded folders\n", n, scan.Extension)
	}
}

// ConfirmIntro prints the warning shown before the confirmation prompt.
func (r *Reporter) ConfirmIntro(res *scan.Result) {
	r.printf("\n%s\n", r.styles.warn.Render(fmt.Sprintf("Are you sure you want to delete all %d %s files?", len(res.Candidates), scan.Extension)))
	if n := len(res.Excluded); n > 0 {
		r.printf("    (%d files in excluded folders will be preserved)\n", n)
	}
}

// ConfirmQuestion is the prompt text itself.
func (r *Reporter) ConfirmQuestion() string {
	return "Type 'yes' to confirm: "
}

func (r *Reporter) Declined() {
	r.printf("%s\n", r.styles.fail.Render("Operation cancelled."))
}

func (r *Reporter) DeletingHeader() {
	r.printf("\nDeleting files...\n")
}

func (r *Reporter) Deleted(c scan.Candidate) {
	r.printf("  %s %s\n", r.styles.ok.Render("✓"), displayPath(c))
}

func (r *Reporter) Failed(c scan.Candidate, err error) {
	r.printf("  %s %s: %v\n", r.styles.fail.Render("✗"), displayPath(c), err)
}

// Summary prints the final counts of a run that reached deletion.
func (r *Reporter) Summary(deleted, failed, excluded int) {
	r.printf("\n%s\n", r.styles.title.Render("Summary:"))
	r.printf("  %s Successfully deleted: %d files\n", r.styles.ok.Render("✓"), deleted)
	if failed > 0 {
		r.printf("  %s Failed to delete: %d files\n", r.styles.fail.Render("✗"), failed)
	}
	if excluded > 0 {
		r.printf("  - Preserved in excluded folders: %d files\n", excluded)
	}
	if deleted > 0 {
		r.printf("\n%s\n", r.styles.ok.Render("Operation completed successfully!"))
	}
}

// Defaults prints the built-in exclusion list.
func (r *Reporter) Defaults(names []string) {
	r.printf("Default excluded folders:\n")
	for _, name := range names {
		r.printf("  - %s\n", name)
	}
}

// Interrupted is printed when the user cancels with a signal.
func (r *Reporter) Interrupted() {
	r.printf("\n\n%s\n", r.styles.fail.Render("Operation cancelled by user (Ctrl+C)"))
}

// UnexpectedError is printed for errors that abort the run.
func (r *Reporter) UnexpectedError(err error) {
	r.printf("\n%s\n", r.styles.fail.Render(fmt.Sprintf("Unexpected error: %v", err)))
}

func displayPath(c scan.Candidate) string {
	return filepath.ToSlash(c.RelPath)
}

func excludedReason(c scan.Candidate) string {
	if c.ExcludedBy == "" {
		return "outside scan root"
	}
	return "in " + c.ExcludedBy
}
