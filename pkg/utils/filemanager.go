// =============================================================================
// Report Export - File Management Utilities
// =============================================================================
//
// This package provides utilities for report output handling:
//   - Output directory creation
//   - Output file naming from a placeholder pattern
//   - Atomic writes (temp file + rename) so readers never see partial files
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// fileNameReplacer removes characters that are unsafe in file names.
var fileNameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// GenerateOutputFileName generates an output file name from a format pattern.
//
// PLACEHOLDERS:
//   - {uuid}: A unique identifier
//   - {timestamp}: now as YYYYMMDD_HHMMSS
//   - {date}: now as YYYYMMDD
//   - {time}: now as HHMMSS
//   - {key}: Any key from params, e.g. {report}, {start}, {end}
//
// The extension (e.g. ".xlsx") is appended unless the result already has it.
func GenerateOutputFileName(format, ext string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	result = strings.TrimSpace(fileNameReplacer.Replace(result))

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// OUTPUT WRITING
// =============================================================================

// WriteOutput writes data to dir/name, creating dir if needed. The file is
// written to a temporary name first and renamed into place.
//
// RETURNS:
//   - The path of the written file.
//   - An error if the directory or file cannot be written.
func WriteOutput(dir, name string, data []byte) (string, error) {
	if err := EnsureDirectories(dir); err != nil {
		return "", err
	}

	target := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move output into place: %w", err)
	}

	return target, nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
