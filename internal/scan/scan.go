package scan

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"mdclean/internal/config"
	"mdclean/internal/logging"
)

// Extension is the only file suffix a scan matches. Case-sensitive.
const Extension = ".md"

// Candidate is a matched file and its classification.
type Candidate struct {
	Path       string // absolute
	RelPath    string // relative to the scan root
	Excluded   bool
	ExcludedBy string // first excluded folder segment; empty if the path left the root
}

// SkippedEntry is an entry the walk could not read.
type SkippedEntry struct {
	Path string
	Err  error
}

// Result holds one scan of one root. Candidates and Excluded keep walk order.
type Result struct {
	Root       string
	Candidates []Candidate
	Excluded   []Candidate
	Skipped    []SkippedEntry
}

// Found is the number of matching files, excluded or not.
func (r *Result) Found() int {
	return len(r.Candidates) + len(r.Excluded)
}

// Scanner performs best-effort file system scans
type Scanner struct {
	logger logging.Logger
	walker Walker
}

// NewScanner creates a new Scanner with the given logger
func NewScanner(logger *log.Logger) *Scanner {
	return &Scanner{
		logger: logging.NewLeveled(logger),
		walker: DirWalker{},
	}
}

// SetWalker replaces the filesystem traversal, used by tests
func (s *Scanner) SetWalker(w Walker) {
	s.walker = w
}

// Scan enumerates every file under root ending in Extension and classifies it
// against excl. Unreadable entries are logged, recorded and skipped.
func (s *Scanner) Scan(ctx context.Context, root string, excl config.ExclusionSet) (*Result, error) {
	s.logger.Info("Starting scan", "root", root, "exclusions", excl.Len())

	res := &Result{Root: root}
	for path, err := range s.walker.Walk(ctx, root) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			s.logger.Warn("Skipping unreadable entry", "path", path, "error", err)
			res.Skipped = append(res.Skipped, SkippedEntry{Path: path, Err: err})
			continue
		}
		if !strings.HasSuffix(filepath.Base(path), Extension) {
			continue
		}

		cand := Classify(root, path, excl)
		if cand.Excluded {
			s.logger.Debug("File excluded", "path", cand.RelPath, "folder", cand.ExcludedBy)
			res.Excluded = append(res.Excluded, cand)
			continue
		}
		s.logger.Debug("File selected for deletion", "path", cand.RelPath)
		res.Candidates = append(res.Candidates, cand)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("Scan complete",
		"root", root,
		"candidates", len(res.Candidates),
		"excluded", len(res.Excluded),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Classify decides whether path is excluded. Every folder segment of the path
// relative to root is compared with excl; the file name itself is not. A
// path that cannot be expressed relative to root is excluded.
func Classify(root, path string, excl config.ExclusionSet) Candidate {
	cand := Candidate{Path: path, RelPath: path}

	rel, err := filepath.Rel(root, path)
	if err != nil || escapesRoot(rel) {
		cand.Excluded = true
		return cand
	}
	cand.RelPath = rel

	dir := filepath.Dir(rel)
	if dir == "." {
		return cand
	}
	for _, segment := range strings.Split(dir, string(os.PathSeparator)) {
		if excl.Contains(segment) {
			cand.Excluded = true
			cand.ExcludedBy = segment
			return cand
		}
	}
	return cand
}

func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// Describe is a short human form of a scan error for the report
func (e SkippedEntry) Describe() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}
