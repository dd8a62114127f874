package database

import (
	"database/sql"
	"time"
)

const deletionColumns = `id, run_id, timestamp, action, path, rel_path, file_name, error_message`

// GetRecentDeletions returns the N most recent delete attempts
func (h *HistoryDB) GetRecentDeletions(limit int) ([]DeletionRecord, error) {
	query := `
	SELECT ` + deletionColumns + `
	FROM deletions
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	return h.queryDeletions(query, limit)
}

// GetDeletionsByAction returns delete attempts filtered by action type
func (h *HistoryDB) GetDeletionsByAction(action string) ([]DeletionRecord, error) {
	query := `
	SELECT ` + deletionColumns + `
	FROM deletions
	WHERE action = ?
	ORDER BY timestamp DESC, id DESC
	`

	return h.queryDeletions(query, action)
}

// GetDeletionsByPath returns delete attempts matching a path pattern (SQL LIKE)
func (h *HistoryDB) GetDeletionsByPath(pathPattern string) ([]DeletionRecord, error) {
	query := `
	SELECT ` + deletionColumns + `
	FROM deletions
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC
	`

	return h.queryDeletions(query, pathPattern)
}

// GetDeletionsByRun returns the attempts of one run in the order they happened
func (h *HistoryDB) GetDeletionsByRun(runID int64) ([]DeletionRecord, error) {
	query := `
	SELECT ` + deletionColumns + `
	FROM deletions
	WHERE run_id = ?
	ORDER BY id ASC
	`

	return h.queryDeletions(query, runID)
}

// GetRecentRuns returns the N most recent runs
func (h *HistoryDB) GetRecentRuns(limit int) ([]RunRecord, error) {
	rows, err := h.db.Query(`
	SELECT id, started_at, finished_at, root, mode, found, deleted, failed, excluded
	FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var finished sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &finished, &r.Root, &r.Mode,
			&r.Found, &r.Deleted, &r.Failed, &r.Excluded,
		); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// HistoryStats holds aggregated statistics
type HistoryStats struct {
	Runs         int            `json:"runs"`
	TotalDeleted int            `json:"total_deleted"`
	TotalErrors  int            `json:"total_errors"`
	ByRoot       map[string]int `json:"by_root"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
}

// GetStats returns statistics for the last days
func (h *HistoryDB) GetStats(days int, now time.Time) (*HistoryStats, error) {
	since := now.AddDate(0, 0, -days).UTC()

	stats := &HistoryStats{
		StartDate: since,
		EndDate:   now.UTC(),
		ByRoot:    make(map[string]int),
	}

	err := h.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END)
		FROM deletions
		WHERE timestamp >= ?
	`, since).Scan(&stats.TotalDeleted, &stats.TotalErrors)
	if err != nil {
		return nil, err
	}

	err = h.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE started_at >= ?`, since).Scan(&stats.Runs)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(`
		SELECT r.root, COUNT(*)
		FROM deletions d JOIN runs r ON r.id = d.run_id
		WHERE d.action = 'DELETE' AND d.timestamp >= ?
		GROUP BY r.root
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var root string
		var count int
		if err := rows.Scan(&root, &count); err != nil {
			return nil, err
		}
		stats.ByRoot[root] = count
	}

	return stats, rows.Err()
}

// DeleteOldRecords removes runs and their attempts older than the given days
func (h *HistoryDB) DeleteOldRecords(olderThanDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -olderThanDays).UTC()

	tx, err := h.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		DELETE FROM deletions WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryDeletions is a helper function to execute queries and scan results
func (h *HistoryDB) queryDeletions(query string, args ...interface{}) ([]DeletionRecord, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeletionRecord
	for rows.Next() {
		var r DeletionRecord
		var errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Timestamp, &r.Action, &r.Path,
			&r.RelPath, &r.FileName, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		if errMsg.Valid {
			r.ErrorMessage = errMsg.String
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
