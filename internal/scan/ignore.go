// Package scan builds the directory tree model: it walks a root directory,
// applies ignore rules, classifies entries, and detects the project's web
// framework from marker files.
package scan

import "path/filepath"

// DefaultIgnorePatterns is the built-in exclusion set applied to every scan
// unless explicitly disabled. Matching is shell-glob style against the entry
// base name and case-sensitive on every platform.
var DefaultIgnorePatterns = []string{
	".git",
	".hg",
	".svn",
	"__pycache__",
	"*.pyc",
	".venv",
	"venv",
	"node_modules",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".tox",
	".idea",
	".vscode",
	".DS_Store",
}

// ShouldIgnore reports whether an entry with the given base name matches any
// of the provided glob patterns. A malformed pattern never matches.
func ShouldIgnore(entryName string, ignorePatterns []string) bool {
	for _, ignorePattern := range ignorePatterns {
		matched, matchError := filepath.Match(ignorePattern, entryName)
		if matchError == nil && matched {
			return true
		}
	}
	return false
}

// CombineIgnorePatterns merges the default pattern set with extra patterns,
// preserving order and dropping duplicates. When disableDefaults is true only
// the extra patterns are used.
func CombineIgnorePatterns(extraPatterns []string, disableDefaults bool) []string {
	var combinedPatterns []string
	if !disableDefaults {
		combinedPatterns = append(combinedPatterns, DefaultIgnorePatterns...)
	}
	combinedPatterns = append(combinedPatterns, extraPatterns...)

	encounteredPatterns := make(map[string]struct{}, len(combinedPatterns))
	deduplicatedPatterns := make([]string, 0, len(combinedPatterns))
	for _, ignorePattern := range combinedPatterns {
		if _, exists := encounteredPatterns[ignorePattern]; exists {
			continue
		}
		encounteredPatterns[ignorePattern] = struct{}{}
		deduplicatedPatterns = append(deduplicatedPatterns, ignorePattern)
	}
	return deduplicatedPatterns
}
