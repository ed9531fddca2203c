package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"projviz/internal/utils"
)

// IgnoreFileName is the per-project file holding extra ignore patterns,
// one glob per line.
const IgnoreFileName = ".projvizignore"

// LoadIgnoreFilePatterns reads the ignore file at the given path if it
// exists and returns its patterns. Blank lines and lines beginning with '#'
// are skipped. A missing file yields a nil slice and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openError := os.Open(ignoreFilePath)
	if openError != nil {
		if os.IsNotExist(openError) {
			return nil, nil
		}
		return nil, openError
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var patterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		lineValue := strings.TrimSpace(scanner.Text())
		if lineValue == "" || strings.HasPrefix(lineValue, "#") {
			continue
		}
		patterns = append(patterns, lineValue)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}

// LoadCombinedIgnorePatterns loads patterns from the project ignore file in
// the scan root (when enabled), appends the caller-supplied patterns, and
// returns the deduplicated combination.
func LoadCombinedIgnorePatterns(absoluteDirectoryPath string, extraPatterns []string, useIgnoreFile bool) ([]string, error) {
	var combinedPatterns []string

	if useIgnoreFile {
		ignoreFilePath := filepath.Join(absoluteDirectoryPath, IgnoreFileName)
		ignoreFilePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
		if loadError != nil {
			return nil, fmt.Errorf("loading %s from %s: %w", IgnoreFileName, absoluteDirectoryPath, loadError)
		}
		combinedPatterns = append(combinedPatterns, ignoreFilePatterns...)
	}

	combinedPatterns = append(combinedPatterns, extraPatterns...)
	return utils.DeduplicatePatterns(combinedPatterns), nil
}
