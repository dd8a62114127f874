package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run modes reported through mdclean_last_run_mode
const (
	ModeNone      = "NONE"
	ModeDryRun    = "DRY_RUN"
	ModeDeclined  = "DECLINED"
	ModeDelete    = "DELETE"
	ModeCancelled = "CANCELLED"
	ModeError     = "ERROR"
)

var modes = []string{ModeNone, ModeDryRun, ModeDeclined, ModeDelete, ModeCancelled, ModeError}

// Collector owns the metrics of one invocation. Each Collector has a private
// registry so that the textfile only carries mdclean series.
type Collector struct {
	registry *prometheus.Registry

	FilesFoundTotal    prometheus.Counter
	FilesDeletedTotal  prometheus.Counter
	FilesFailedTotal   prometheus.Counter
	FilesExcludedTotal prometheus.Counter
	ScanSkippedTotal   prometheus.Counter
	ErrorsTotal        prometheus.Counter
	RunDuration        prometheus.Histogram
	LastRunTimestamp   prometheus.Gauge
	LastRunMode        *prometheus.GaugeVec
}

// New creates and registers every metric
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	c.initRunMetrics()
	c.registerRunMetrics()

	// Initialize metrics with default values so they appear in the output
	// even for runs that stop early
	c.LastRunTimestamp.Set(0)
	c.SetRunMode(ModeNone)
	return c
}

func (c *Collector) initRunMetrics() {
	c.FilesFoundTotal = NewCounter(
		"mdclean_files_found_total",
		"Matching files found by the scan, excluded or not.",
	)
	c.FilesDeletedTotal = NewCounter(
		"mdclean_files_deleted_total",
		"Files removed successfully.",
	)
	c.FilesFailedTotal = NewCounter(
		"mdclean_files_failed_total",
		"Files whose removal failed.",
	)
	c.FilesExcludedTotal = NewCounter(
		"mdclean_files_excluded_total",
		"Matching files preserved because of an excluded folder.",
	)
	c.ScanSkippedTotal = NewCounter(
		"mdclean_scan_skipped_entries_total",
		"Entries the scan could not read and skipped.",
	)
	c.ErrorsTotal = NewCounter(
		"mdclean_errors_total",
		"Unexpected errors that aborted a run.",
	)
	c.RunDuration = NewDurationHistogram(
		"mdclean_run_duration_seconds",
		"Duration of a run in seconds.",
	)
	c.LastRunTimestamp = NewGauge(
		"mdclean_last_run_timestamp",
		"Timestamp of the last run (Unix epoch seconds).",
	)
	c.LastRunMode = NewGaugeVec(
		"mdclean_last_run_mode",
		"Outcome of the last run; the active mode is 1.",
		[]string{"mode"},
	)
}

func (c *Collector) registerRunMetrics() {
	c.registry.MustRegister(
		c.FilesFoundTotal,
		c.FilesDeletedTotal,
		c.FilesFailedTotal,
		c.FilesExcludedTotal,
		c.ScanSkippedTotal,
		c.ErrorsTotal,
		c.RunDuration,
		c.LastRunTimestamp,
		c.LastRunMode,
	)
}

// Gatherer exposes the private registry
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// RecordScan adds the counts of one scan
func (c *Collector) RecordScan(candidates, excluded, skipped int) {
	c.FilesFoundTotal.Add(float64(candidates + excluded))
	c.FilesExcludedTotal.Add(float64(excluded))
	c.ScanSkippedTotal.Add(float64(skipped))
}

// RecordDeletion counts one delete attempt
func (c *Collector) RecordDeletion(ok bool) {
	if ok {
		c.FilesDeletedTotal.Inc()
		return
	}
	c.FilesFailedTotal.Inc()
}

// SetRunMode sets mode to 1 and every other mode to 0
func (c *Collector) SetRunMode(mode string) {
	for _, m := range modes {
		c.LastRunMode.WithLabelValues(m).Set(0)
	}
	c.LastRunMode.WithLabelValues(mode).Set(1)
}

// RecordRun stamps the end of a run
func (c *Collector) RecordRun(start time.Time, end time.Time) {
	c.RunDuration.Observe(end.Sub(start).Seconds())
	c.LastRunTimestamp.Set(float64(end.Unix()))
}

// WriteTextfile writes all metrics in the node-exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
