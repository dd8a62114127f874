package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mdclean/internal/cleanup"
	"mdclean/internal/config"
	"mdclean/internal/database"
	"mdclean/internal/logging"
	"mdclean/internal/metrics"
	"mdclean/internal/report"
)

var (
	// Version info populated from main
	appVersion = "1.1.0"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		appVersion = version
	}
	appCommit = commit
	appDate = date
}

func versionString() string {
	if appCommit == "" || appCommit == "none" {
		return appVersion
	}
	return fmt.Sprintf("%s (%s, built %s)", appVersion, appCommit, appDate)
}

type options struct {
	path         string
	exclude      []string
	includeAll   bool
	dryRun       bool
	force        bool
	listDefaults bool
	verbose      bool
	configPath   string
	historyDB    string
	metricsFile  string
	logFile      string
}

// NewRootCommand builds the mdclean command bound to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "mdclean",
		Short: "Delete .md files from a directory tree",
		Long: `mdclean recursively finds .md files below a directory and deletes them,
preserving files inside common build, dependency and cache folders.

Nothing is deleted without confirmation unless --force is given, and
--dry-run only reports what would be deleted.`,
		Example: `  mdclean --dry-run
  mdclean --path ./docs --exclude drafts archive
  mdclean --include-all --exclude .git --force`,
		Version:       versionString(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, stdin, stdout, stderr)
		},
	}
	cmd.SetVersionTemplate("mdclean {{.Version}}\n")
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.path, "path", ".", "Directory to scan")
	flags.StringArrayVar(&opts.exclude, "exclude", nil, "Additional folder names to exclude (space separated, may be repeated)")
	flags.BoolVar(&opts.includeAll, "include-all", false, "Do not apply the default exclusions")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be deleted without deleting")
	flags.BoolVar(&opts.force, "force", false, "Skip the confirmation prompt")
	flags.BoolVar(&opts.listDefaults, "list-defaults", false, "List the default excluded folders and exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "List excluded files and log operations to stderr")
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	flags.StringVar(&opts.historyDB, "history-db", "", "Record runs and outcomes to this SQLite database")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	flags.StringVar(&opts.logFile, "log-file", "", "Append the operational log to this file")

	return cmd
}

// Execute runs mdclean with the process arguments and standard streams.
func Execute(ctx context.Context) error {
	cmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	cmd.SetArgs(normalizeArgs(os.Args[1:]))
	return cmd.ExecuteContext(ctx)
}

// normalizeArgs lets --exclude take zero or more space separated values the
// way "--exclude a b c" reads, by repeating the flag for every following
// value. A bare --exclude becomes an empty value so the next flag is not
// taken as a folder name.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if arg != "--exclude" {
			out = append(out, arg)
			continue
		}

		n := 0
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			n++
			out = append(out, "--exclude="+args[i])
		}
		if n == 0 {
			out = append(out, "--exclude=")
		}
	}
	return out
}

func run(cmd *cobra.Command, opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	rep := report.New(stdout)
	if opts.listDefaults {
		rep.Defaults(config.Defaults())
		return nil
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	var console io.Writer
	if opts.verbose {
		console = stderr
	}
	logger, closer := logging.NewWithConfig(cfg.Logging, console)
	defer closer.Close()
	leveled := logging.NewLeveled(logger)
	leveled.Info("mdclean starting", "version", appVersion, "path", cfg.Path, "dry_run", opts.dryRun)

	collector := metrics.New()
	cleaner := cleanup.NewCleaner(logger, rep, collector)
	cleaner.SetInput(stdin)
	if w, ok := closer.(io.Writer); ok {
		cleaner.SetAuditLog(w)
	}

	if cfg.History.DatabasePath != "" {
		leveled.Info("Opening history database", "path", cfg.History.DatabasePath)
		db, err := database.NewHistoryDB(cfg.History.DatabasePath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				leveled.Error("Failed to close database", "error", err)
			}
		}()
		cleaner.SetHistory(db)
	}

	rep.Banner(opts.dryRun, opts.force, cfg.IncludeAll)

	_, runErr := cleaner.Run(cmd.Context(), cleanup.Options{
		Path:       cfg.Path,
		Exclude:    cfg.Exclude,
		IncludeAll: cfg.IncludeAll,
		DryRun:     opts.dryRun,
		Force:      opts.force,
		Verbose:    opts.verbose,
	})

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			leveled.Error("Failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return runErr
}

// loadConfig reads the optional config file and applies flag overrides.
// Excluded folder names from both sources are combined.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("path") || cfg.Path == "" {
		cfg.Path = opts.path
	}
	for _, name := range opts.exclude {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := config.ValidateFolderName(name); err != nil {
			return nil, fmt.Errorf("--exclude: %w", err)
		}
		cfg.Exclude = append(cfg.Exclude, name)
	}
	if opts.includeAll {
		cfg.IncludeAll = true
	}
	if opts.historyDB != "" {
		cfg.History.DatabasePath = opts.historyDB
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	return cfg, nil
}
