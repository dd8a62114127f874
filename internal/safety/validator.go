package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathNotFound  = errors.New("path does not exist")
	ErrNotADirectory = errors.New("path is not a directory")
	ErrInvalidPath   = errors.New("invalid path")
	ErrRootTarget    = errors.New("refusing to delete the scan root")
	ErrOutsideRoot   = errors.New("outside scan root")
	ErrTraversal     = errors.New("path traversal detected")
	ErrSymlinkEscape = errors.New("symlink escape detected")
)

// ResolveRoot turns a user supplied path into the absolute, symlink-free
// directory that a scan is anchored to.
func ResolveRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(resolved), nil
}

// Validator enforces the safety contract for every delete issued by a run
type Validator struct {
	Root string
}

// NewValidator creates a validator bound to an already resolved scan root
func NewValidator(root string) *Validator {
	return &Validator{Root: filepath.Clean(root)}
}

// ValidateDeleteTarget is the single-source-of-truth for delete authorization
// Returns typed error on safety violation
func (v *Validator) ValidateDeleteTarget(path string) error {
	// 1. Detect path traversal in raw input
	if DetectTraversal(path) {
		return ErrTraversal
	}

	// 2. Normalize path to absolute, cleaned form
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	// 3. Never the root itself, always below it
	if p == v.Root {
		return ErrRootTarget
	}
	if !hasPathPrefix(p, v.Root) {
		return ErrOutsideRoot
	}

	// 4. The containing directory must still resolve inside the root. The
	// file itself may be a symlink: removing it only removes the link.
	escaped, err := DetectSymlinkEscape(filepath.Dir(p), v.Root)
	if err != nil {
		// A vanished parent makes the delete itself fail with a clearer error
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves symlinks and checks if resolved path escapes root
func DetectSymlinkEscape(cleanAbs string, root string) (bool, error) {
	resolved, err := filepath.EvalSymlinks(cleanAbs)
	if err != nil {
		return false, err
	}
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return false, err
	}
	return !hasPathPrefix(filepath.Clean(resolvedAbs), root), nil
}

// hasPathPrefix checks if path is prefix or lies below it
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return filepath.IsAbs(path)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}
