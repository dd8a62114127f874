package config

import (
	"sort"
	"strings"
)

// defaultExclusions are folder names whose contents are never touched unless
// --include-all is given. Only reachable through Defaults.
var defaultExclusions = []string{
	"node_modules",  // Node.js dependencies
	".git",          // Git repository
	"__pycache__",   // Python cache
	".vscode",       // VS Code settings
	".idea",         // IntelliJ/PyCharm
	"dist",          // Build output
	"build",         // Build output
	".next",         // Next.js build
	"coverage",      // Test coverage
	".pytest_cache", // Pytest cache
	".mypy_cache",   // MyPy cache
	"venv",          // Python virtual env
	"env",           // Python virtual env
	".env",          // Environment files dir
	"vendor",        // Package dependencies
	"target",        // Rust/Java build
	"bin",           // Binary files
	"obj",           // Object files
	".nuxt",         // Nuxt.js build
	"public",        // Static files (might contain docs)
}

// Defaults returns a copy of the built-in exclusion list, sorted.
func Defaults() []string {
	out := make([]string, len(defaultExclusions))
	copy(out, defaultExclusions)
	sort.Strings(out)
	return out
}

// ExclusionSet holds folder names compared against whole path segments.
type ExclusionSet map[string]struct{}

// BuildExclusionSet returns the defaults (or nothing, when includeAll is set)
// unioned with extra. Blank names are dropped.
func BuildExclusionSet(includeAll bool, extra []string) ExclusionSet {
	set := make(ExclusionSet, len(defaultExclusions)+len(extra))
	if !includeAll {
		for _, name := range defaultExclusions {
			set[name] = struct{}{}
		}
	}
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether segment is an exact, case-sensitive member.
func (s ExclusionSet) Contains(segment string) bool {
	_, ok := s[segment]
	return ok
}

func (s ExclusionSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s ExclusionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
