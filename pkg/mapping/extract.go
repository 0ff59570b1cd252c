package mapping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrAssignmentNotFound is returned when the named table is not in the source.
var ErrAssignmentNotFound = errors.New("mapping assignment not found")

var entryPattern = regexp.MustCompile(`["']([^"']+)["']\s*:\s*["']([^"']+)["']`)

// ExtractAssignment recovers a table written as a dictionary literal,
//
//	NAME = {
//	    "styles/index.css": "styles/b1c2d3e4f5axa.css",
//	}
//
// from a build script without executing it. One entry per line; lines that
// do not look like a quoted key/value pair are skipped.
func ExtractAssignment(src []byte, name string) ([]Pair, error) {
	block := regexp.MustCompile(`(?s)\b` + regexp.QuoteMeta(name) + `\s*=\s*\{([^}]+)\}`)
	match := block.FindSubmatch(src)
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssignmentNotFound, name)
	}

	var pairs []Pair
	for _, line := range strings.Split(string(match[1]), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if m := entryPattern.FindStringSubmatch(line); m != nil {
			pairs = append(pairs, Pair{Old: m[1], New: m[2]})
		}
	}
	return pairs, nil
}

// ExtractAssignmentFile is ExtractAssignment over a file on disk.
func ExtractAssignmentFile(path, name string) ([]Pair, error) {
	src, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- user-selected script
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	pairs, err := ExtractAssignment(src, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}
