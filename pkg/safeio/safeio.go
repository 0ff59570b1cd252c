package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a path climbs out of its base.
var ErrTraversal = errors.New("path traversal detected")

// CleanUserPath cleans a user-provided relative path and rejects traversal.
// A ".." segment anywhere in the cleaned path is rejected; dots inside a
// file name ("a..b.css") are fine. Returns forward slashes.
func CleanUserPath(p string) (string, error) {
	slashed := filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", ErrTraversal
		}
	}
	return slashed, nil
}

// Within reports whether target resolves inside baseDir.
func Within(baseDir, target string) (bool, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false, fmt.Errorf("resolve base directory: %w", err)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false, fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false, fmt.Errorf("compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// JoinContained joins a slash-separated relative path onto baseDir and
// fails if the result escapes it.
func JoinContained(baseDir, rel string) (string, error) {
	clean, err := CleanUserPath(rel)
	if err != nil {
		return "", err
	}
	full := filepath.Join(baseDir, filepath.FromSlash(clean))
	ok, err := Within(baseDir, full)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTraversal
	}
	return full, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	ok, err := Within(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("file path is outside base directory")
	}
	// #nosec G304 -- containment verified above
	return os.ReadFile(filePath)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers never clobber something they cannot inspect.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
