package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"mdclean/internal/database"
	"mdclean/internal/exitcodes"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("mdclean-history", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	// Parse command-line flags
	dbPath := flags.String("db", "mdclean-history.db", "Path to history database")
	recent := flags.Int("recent", 0, "Show N most recent delete attempts")
	action := flags.String("action", "", "Filter by action (DELETE, ERROR)")
	pathPattern := flags.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	runID := flags.Int64("run", 0, "Show the attempts of one run")
	runs := flags.Int("runs", 0, "Show N most recent runs")
	stats := flags.Bool("stats", false, "Show deletion statistics")
	days := flags.Int("days", 30, "Number of days for statistics and pruning")
	prune := flags.Bool("prune", false, "Delete runs older than --days and compact the database")
	jsonOutput := flags.Bool("json", false, "Output in JSON format")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitcodes.Success
		}
		return exitcodes.RuntimeError
	}

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(stderr, "ERROR: History database %s: %v\n", *dbPath, err)
		return exitcodes.RuntimeError
	}

	// Open database
	db, err := database.NewHistoryDB(*dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Failed to open database %s: %v\n", *dbPath, err)
		return exitcodes.RuntimeError
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "ERROR: Failed to close database: %v\n", err)
		}
	}()

	q := querier{db: db, out: stdout, json: *jsonOutput}

	// Handle different query modes
	switch {
	case *prune:
		err = q.prune(*days)
	case *stats:
		err = q.showStats(*days)
	case *runs > 0:
		err = q.showRuns(*runs)
	case *runID > 0:
		err = q.showRun(*runID)
	case *recent > 0:
		err = q.showRecent(*recent)
	case *action != "":
		err = q.showByAction(strings.ToUpper(*action))
	case *pathPattern != "":
		err = q.showByPath(*pathPattern)
	default:
		fmt.Fprintf(stderr, "Usage of mdclean-history:\n%s", flags.FlagUsages())
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintln(stderr, "  mdclean-history --recent 10            # Show 10 most recent delete attempts")
		fmt.Fprintln(stderr, "  mdclean-history --runs 5               # Show the last 5 runs")
		fmt.Fprintln(stderr, "  mdclean-history --stats                # Show deletion statistics")
		fmt.Fprintln(stderr, "  mdclean-history --action ERROR         # Show only failed deletions")
		fmt.Fprintln(stderr, "  mdclean-history --path '/srv/docs/%'   # Show deletions below /srv/docs")
		return exitcodes.RuntimeError
	}

	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitcodes.RuntimeError
	}
	return exitcodes.Success
}

type querier struct {
	db   *database.HistoryDB
	out  io.Writer
	json bool
}

func (q querier) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(q.out, string(data))
	return err
}

func (q querier) showStats(days int) error {
	stats, err := q.db.GetStats(days, time.Now())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if q.json {
		return q.writeJSON(stats)
	}

	fmt.Fprintf(q.out, "Deletion Statistics (Last %d days)\n", days)
	fmt.Fprintf(q.out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(q.out, "Runs:             %d\n", stats.Runs)
	fmt.Fprintf(q.out, "Total Deleted:    %d\n", stats.TotalDeleted)
	fmt.Fprintf(q.out, "Total Errors:     %d\n", stats.TotalErrors)

	if len(stats.ByRoot) > 0 {
		roots := make([]string, 0, len(stats.ByRoot))
		for root := range stats.ByRoot {
			roots = append(roots, root)
		}
		sort.Strings(roots)

		fmt.Fprintln(q.out, "\nBy Root:")
		for _, root := range roots {
			fmt.Fprintf(q.out, "  %-40s %d\n", root, stats.ByRoot[root])
		}
	}
	return nil
}

func (q querier) showRuns(limit int) error {
	runs, err := q.db.GetRecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}

	if q.json {
		return q.writeJSON(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(q.out, "No runs found")
		return nil
	}

	w := tabwriter.NewWriter(q.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tStarted\tMode\tFound\tDeleted\tFailed\tExcluded\tRoot")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t-----\t-------\t------\t--------\t----")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Found, r.Deleted, r.Failed, r.Excluded, r.Root)
	}
	return w.Flush()
}

func (q querier) showRun(id int64) error {
	records, err := q.db.GetDeletionsByRun(id)
	if err != nil {
		return fmt.Errorf("failed to query run %d: %w", id, err)
	}
	return q.printOrJSON(fmt.Sprintf("Attempts of run %d:", id), records)
}

func (q querier) showRecent(limit int) error {
	records, err := q.db.GetRecentDeletions(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent deletions: %w", err)
	}
	return q.printOrJSON("", records)
}

func (q querier) showByAction(action string) error {
	records, err := q.db.GetDeletionsByAction(action)
	if err != nil {
		return fmt.Errorf("failed to query by action: %w", err)
	}
	return q.printOrJSON(fmt.Sprintf("Records with action: %s", action), records)
}

func (q querier) showByPath(pathPattern string) error {
	records, err := q.db.GetDeletionsByPath(pathPattern)
	if err != nil {
		return fmt.Errorf("failed to query by path: %w", err)
	}
	return q.printOrJSON(fmt.Sprintf("Deletions matching path pattern: %s", pathPattern), records)
}

func (q querier) prune(days int) error {
	removed, err := q.db.DeleteOldRecords(days, time.Now())
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if err := q.db.Vacuum(); err != nil {
		return fmt.Errorf("failed to compact database: %w", err)
	}
	fmt.Fprintf(q.out, "Removed %d records older than %d days\n", removed, days)
	return nil
}

func (q querier) printOrJSON(title string, records []database.DeletionRecord) error {
	if q.json {
		return q.writeJSON(records)
	}
	if title != "" {
		fmt.Fprintf(q.out, "%s\n\n", title)
	}
	return printRecords(q.out, records)
}

func printRecords(out io.Writer, records []database.DeletionRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRun\tTimestamp\tAction\tPath\tError")
	_, _ = fmt.Fprintln(w, "--\t---\t---------\t------\t----\t-----")

	for _, r := range records {
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.RunID, timestamp, r.Action, r.Path, r.ErrorMessage)
	}
	return w.Flush()
}
