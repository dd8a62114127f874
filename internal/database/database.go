package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Actions stored per file
const (
	ActionDelete = "DELETE"
	ActionError  = "ERROR"
)

// HistoryDB manages the SQLite database for deletion history
type HistoryDB struct {
	db *sql.DB
}

// DeletionRecord represents a single delete attempt
type DeletionRecord struct {
	ID           int64     `json:"id"`
	RunID        int64     `json:"run_id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	Path         string    `json:"path"`
	RelPath      string    `json:"rel_path"`
	FileName     string    `json:"file_name"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RunRecord represents one invocation
type RunRecord struct {
	ID         int64      `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Root       string     `json:"root"`
	Mode       string     `json:"mode"`
	Found      int        `json:"found"`
	Deleted    int        `json:"deleted"`
	Failed     int        `json:"failed"`
	Excluded   int        `json:"excluded"`
}

// RunTotals are the aggregate counts written when a run finishes
type RunTotals struct {
	Mode     string
	Found    int
	Deleted  int
	Failed   int
	Excluded int
}

// NewHistoryDB creates a new database connection and initializes schema
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Test connection by executing a simple query instead of Ping()
	// This ensures the database file is created if it doesn't exist
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &HistoryDB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return hdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (h *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		root TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'NONE',
		found INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		excluded INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS deletions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		file_name TEXT NOT NULL,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deletions_timestamp ON deletions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_deletions_action ON deletions(action);
	CREATE INDEX IF NOT EXISTS idx_deletions_path ON deletions(path);
	CREATE INDEX IF NOT EXISTS idx_deletions_run ON deletions(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// StartRun inserts a run row and returns its id
func (h *HistoryDB) StartRun(root string, startedAt time.Time) (int64, error) {
	res, err := h.db.Exec(
		`INSERT INTO runs (started_at, root) VALUES (?, ?)`,
		startedAt.UTC(), root,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordDeletion inserts one delete attempt. errorMsg is empty on success.
func (h *HistoryDB) RecordDeletion(runID int64, action, path, relPath, errorMsg string, at time.Time) error {
	var errValue sql.NullString
	if errorMsg != "" {
		errValue = sql.NullString{String: errorMsg, Valid: true}
	}

	_, err := h.db.Exec(`
	INSERT INTO deletions (run_id, timestamp, action, path, rel_path, file_name, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		at.UTC(),
		action,
		path,
		relPath,
		filepath.Base(path),
		errValue,
	)
	return err
}

// FinishRun stores the totals of a run
func (h *HistoryDB) FinishRun(runID int64, totals RunTotals, finishedAt time.Time) error {
	_, err := h.db.Exec(`
	UPDATE runs
	SET finished_at = ?, mode = ?, found = ?, deleted = ?, failed = ?, excluded = ?
	WHERE id = ?
	`,
		finishedAt.UTC(),
		totals.Mode,
		totals.Found,
		totals.Deleted,
		totals.Failed,
		totals.Excluded,
		runID,
	)
	return err
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Vacuum optimizes the database (run after pruning)
func (h *HistoryDB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}
