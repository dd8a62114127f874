package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mdclean/internal/config"
)

const defaultRotationDays = 30

// NewWithConfig creates a logger writing to console (may be nil) and, when
// cfg.File is set, appending to that file with age based rotation. The
// returned closer releases the file.
func NewWithConfig(cfg config.LoggingCfg, console io.Writer) (*log.Logger, io.Closer) {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if f, err := openLogFile(cfg); err != nil {
			if console != nil {
				log.New(console, "", log.LstdFlags).Printf("failed to open log file %s: %v", cfg.File, err)
			}
		} else {
			writers = append(writers, f)
			closer = f
		}
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds), closer
}

func openLogFile(cfg config.LoggingCfg) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, err
	}

	rotateDays := defaultRotationDays
	if cfg.RotationDays > 0 {
		rotateDays = cfg.RotationDays
	}
	rotateLogsIfNeeded(cfg.File, rotateDays, time.Now())

	return os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// rotateLogsIfNeeded rotates the log file once it is older than rotationDays
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := now.AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			return
		}

		cleanupOldLogs(logPath, cutoffTime)
	}
}

// cleanupOldLogs removes rotated log files older than cutoff
func cleanupOldLogs(logPath string, cutoff time.Time) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, entry.Name()))
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
