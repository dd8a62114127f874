package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"mdclean/internal/config"
	"mdclean/internal/database"
	"mdclean/internal/fsops"
	"mdclean/internal/logging"
	"mdclean/internal/metrics"
	"mdclean/internal/prompt"
	"mdclean/internal/report"
	"mdclean/internal/safety"
	"mdclean/internal/scan"
)

// ErrInterrupted is returned when the user cancels a run. It wraps the
// underlying context or prompt error.
var ErrInterrupted = errors.New("operation interrupted")

// Status of one delete attempt
type Status string

const (
	StatusDeleted Status = "deleted"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one delete attempt
type Outcome struct {
	Path    string
	RelPath string
	Status  Status
	Err     error
}

// Summary aggregates one run. Exactly one of DryRun, Declined and Cancelled
// is set when the run stopped early for that reason.
type Summary struct {
	Root         string
	Found        int
	Deleted      int
	Failed       int
	Excluded     int
	Skipped      int
	DeletedPaths []string
	Outcomes     []Outcome
	DryRun       bool
	Declined     bool
	Cancelled    bool
}

// Options select what a run does
type Options struct {
	Path       string
	Exclude    []string
	IncludeAll bool
	DryRun     bool
	Force      bool
	Verbose    bool
}

// Confirmer asks the user to approve the deletion
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Cleaner runs the scan, confirm and delete pipeline with structured logging
type Cleaner struct {
	logger      logging.Logger
	reporter    *report.Reporter
	metrics     *metrics.Collector
	scanner     *scan.Scanner
	deleter     fsops.Deleter
	confirmer   Confirmer
	interactive bool
	auditLog    io.Writer           // Optional sink for structured deletion records
	db          *database.HistoryDB // Optional deletion history
}

// NewCleaner creates a new Cleaner that reads confirmation from stdin
func NewCleaner(logger *log.Logger, reporter *report.Reporter, m *metrics.Collector) *Cleaner {
	if m == nil {
		m = metrics.New()
	}
	c := &Cleaner{
		logger:   logging.NewLeveled(logger),
		reporter: reporter,
		metrics:  m,
		scanner:  scan.NewScanner(logger),
		deleter:  fsops.OSDeleter{},
	}
	c.SetInput(os.Stdin)
	return c
}

// SetDeleter replaces the filesystem deleter, used by tests
func (c *Cleaner) SetDeleter(d fsops.Deleter) {
	c.deleter = d
}

// SetInput reads the confirmation answer from in
func (c *Cleaner) SetInput(in io.Reader) {
	c.confirmer = prompt.NewConfirmer(in, c.reporter.Writer())
	c.interactive = prompt.Interactive(in)
}

// SetConfirmer replaces the confirmation prompt
func (c *Cleaner) SetConfirmer(confirmer Confirmer) {
	c.confirmer = confirmer
}

// SetScanner replaces the scanner, used by tests
func (c *Cleaner) SetScanner(s *scan.Scanner) {
	c.scanner = s
}

// SetAuditLog sets the writer that receives one structured line per file
func (c *Cleaner) SetAuditLog(w io.Writer) {
	c.auditLog = w
}

// SetHistory enables recording of runs and outcomes
func (c *Cleaner) SetHistory(db *database.HistoryDB) {
	c.db = db
}

// Metrics returns the collector the run reports to
func (c *Cleaner) Metrics() *metrics.Collector {
	return c.metrics
}

// Run executes one invocation. A missing or non-directory root is reported
// and yields an empty summary with a nil error. Cancellation returns the
// partial summary together with an error wrapping ErrInterrupted.
func (c *Cleaner) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	root, err := safety.ResolveRoot(opts.Path)
	if err != nil {
		if errors.Is(err, safety.ErrPathNotFound) || errors.Is(err, safety.ErrNotADirectory) {
			c.logger.Warn("Cannot scan root", "path", opts.Path, "error", err)
			c.reporter.RootProblem(opts.Path, err)
			c.finish(start, 0, &Summary{}, metrics.ModeNone)
			return &Summary{}, nil
		}
		c.fail(start, 0, &Summary{})
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	runID := c.startRun(root, start)
	sum := &Summary{Root: root}

	excl := config.BuildExclusionSet(opts.IncludeAll, opts.Exclude)
	res, err := c.scanner.Scan(ctx, root, excl)
	if err != nil {
		if ctx.Err() != nil {
			sum.Cancelled = true
			c.finish(start, runID, sum, metrics.ModeCancelled)
			return sum, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		c.fail(start, runID, sum)
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sum.Found = res.Found()
	sum.Excluded = len(res.Excluded)
	sum.Skipped = len(res.Skipped)
	c.metrics.RecordScan(len(res.Candidates), len(res.Excluded), len(res.Skipped))
	c.reporter.Scan(res, excl, opts.Verbose)

	if len(res.Candidates) == 0 {
		c.finish(start, runID, sum, metrics.ModeNone)
		return sum, nil
	}

	if opts.DryRun {
		for _, cand := range res.Candidates {
			c.logStructured("DRY_RUN", cand.Path, "")
		}
		c.reporter.DryRun(res)
		sum.DryRun = true
		c.finish(start, runID, sum, metrics.ModeDryRun)
		return sum, nil
	}

	if !opts.Force {
		ok, err := c.confirm(ctx, res)
		if err != nil {
			if errors.Is(err, prompt.ErrInterrupted) {
				sum.Cancelled = true
				c.finish(start, runID, sum, metrics.ModeCancelled)
				return sum, fmt.Errorf("%w: %w", ErrInterrupted, err)
			}
			c.fail(start, runID, sum)
			return nil, err
		}
		if !ok {
			c.logger.Info("Deletion declined by user", "candidates", len(res.Candidates))
			c.reporter.Declined()
			sum.Declined = true
			c.finish(start, runID, sum, metrics.ModeDeclined)
			return sum, nil
		}
	}

	if err := c.deleteCandidates(ctx, runID, root, res.Candidates, sum); err != nil {
		sum.Cancelled = true
		c.finish(start, runID, sum, metrics.ModeCancelled)
		return sum, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	c.reporter.Summary(sum.Deleted, sum.Failed, sum.Excluded)
	c.finish(start, runID, sum, metrics.ModeDelete)
	return sum, nil
}

func (c *Cleaner) confirm(ctx context.Context, res *scan.Result) (bool, error) {
	if !c.interactive {
		c.logger.Warn("Standard input is not a terminal, reading confirmation anyway")
	}
	c.reporter.ConfirmIntro(res)
	return c.confirmer.Confirm(ctx, c.reporter.ConfirmQuestion())
}

// deleteCandidates removes every candidate in order. A failure never stops
// the loop; only cancellation does.
func (c *Cleaner) deleteCandidates(ctx context.Context, runID int64, root string, candidates []scan.Candidate, sum *Summary) error {
	c.logger.Info("Starting cleanup", "total_candidates", len(candidates))
	c.reporter.DeletingHeader()

	validator := safety.NewValidator(root)
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("Cleanup interrupted", "deleted", sum.Deleted, "failed", sum.Failed,
				"remaining", len(candidates)-sum.Deleted-sum.Failed)
			return err
		}

		err := validator.ValidateDeleteTarget(cand.Path)
		if err == nil {
			err = c.deleter.Remove(cand.Path)
		}

		outcome := Outcome{Path: cand.Path, RelPath: cand.RelPath, Status: StatusDeleted}
		if err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			sum.Failed++
			c.logger.Error("Failed to delete", "path", cand.Path, "error", err)
			c.logStructured(database.ActionError, cand.Path, err.Error())
			c.reporter.Failed(cand, err)
		} else {
			sum.Deleted++
			sum.DeletedPaths = append(sum.DeletedPaths, cand.Path)
			c.logStructured(database.ActionDelete, cand.Path, "")
			c.reporter.Deleted(cand)
		}
		sum.Outcomes = append(sum.Outcomes, outcome)
		c.metrics.RecordDeletion(err == nil)
		c.recordOutcome(runID, cand, outcome)
	}

	c.logger.Info("Cleanup complete", "success", sum.Deleted, "errors", sum.Failed)
	return nil
}

func (c *Cleaner) startRun(root string, start time.Time) int64 {
	if c.db == nil {
		return 0
	}
	id, err := c.db.StartRun(root, start)
	if err != nil {
		c.logger.Error("Failed to record run start to database", "error", err)
		return 0
	}
	return id
}

func (c *Cleaner) recordOutcome(runID int64, cand scan.Candidate, o Outcome) {
	if c.db == nil || runID == 0 {
		return
	}
	action, msg := database.ActionDelete, ""
	if o.Err != nil {
		action, msg = database.ActionError, o.Err.Error()
	}
	// Don't fail cleanup if DB write fails
	if err := c.db.RecordDeletion(runID, action, cand.Path, cand.RelPath, msg, time.Now()); err != nil {
		c.logger.Error("Failed to record to database", "error", err)
	}
}

// fail closes a run that is aborted by an unexpected error
func (c *Cleaner) fail(start time.Time, runID int64, sum *Summary) {
	c.metrics.ErrorsTotal.Inc()
	c.finish(start, runID, sum, metrics.ModeError)
}

func (c *Cleaner) finish(start time.Time, runID int64, sum *Summary, mode string) {
	end := time.Now()
	c.metrics.SetRunMode(mode)
	c.metrics.RecordRun(start, end)

	c.logger.Info("Run finished",
		"mode", mode,
		"found", sum.Found,
		"deleted", sum.Deleted,
		"failed", sum.Failed,
		"excluded", sum.Excluded,
		"duration", end.Sub(start),
	)

	if c.db == nil || runID == 0 {
		return
	}
	totals := database.RunTotals{
		Mode:     mode,
		Found:    sum.Found,
		Deleted:  sum.Deleted,
		Failed:   sum.Failed,
		Excluded: sum.Excluded,
	}
	if err := c.db.FinishRun(runID, totals, end); err != nil {
		c.logger.Error("Failed to record run totals to database", "error", err)
	}
}

// logStructured logs with structured format: timestamp, action, path, object type, error
func (c *Cleaner) logStructured(action, path, errMsg string) {
	logEntry := fmt.Sprintf("[%s] %s path=%s object=file",
		time.Now().UTC().Format(time.RFC3339),
		action,
		path,
	)
	if errMsg != "" {
		logEntry += fmt.Sprintf(" error=%q", errMsg)
	}

	// Write to the audit log if available, otherwise to the operational log
	if c.auditLog != nil {
		fmt.Fprintln(c.auditLog, logEntry)
		return
	}
	c.logger.Debug(logEntry)
}
