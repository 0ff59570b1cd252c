// Package ignore decides which paths under a target root are left alone,
// using gitignore syntax (via go-git) plus doublestar include/exclude globs.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the per-root ignore file, gitignore syntax.
const FileName = ".cachebustignore"

// defaultPatterns are always applied, lowest priority first.
var defaultPatterns = []string{".git/", "/" + FileName}

// Options configures a Matcher.
type Options struct {
	// Include restricts matching files to these doublestar globs when non-empty.
	Include []string
	// Exclude skips files and directories matching these doublestar globs.
	Exclude []string
	// UseGitignore layers the tree's .gitignore files under the ignore file.
	UseGitignore bool
	// Patterns are extra gitignore-syntax lines applied last.
	Patterns []string
}

// Matcher filters root-relative, slash-separated paths.
type Matcher struct {
	matcher gitignore.Matcher
	include []string
	exclude []string
}

// NewMatcher creates a matcher with layered rules:
// 1. built-in defaults (.git/, the ignore file itself)
// 2. .gitignore files in the tree, when opts.UseGitignore is set
// 3. <root>/.cachebustignore
// 4. opts.Patterns
func NewMatcher(root string, opts Options) (*Matcher, error) {
	for _, g := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid glob pattern %q", g)
		}
	}

	var all []gitignore.Pattern
	for _, p := range defaultPatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	if opts.UseGitignore {
		gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			return nil, fmt.Errorf("read .gitignore patterns: %w", err)
		}
		all = append(all, gitPatterns...)
	}

	filePatterns, err := readIgnoreFile(filepath.Join(root, FileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	for _, p := range filePatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	for _, p := range opts.Patterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	return &Matcher{
		matcher: gitignore.NewMatcher(all),
		include: opts.Include,
		exclude: opts.Exclude,
	}, nil
}

// readIgnoreFile reads patterns from a gitignore-syntax file.
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed file name under the target root
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored reports whether the file at rel should be skipped.
// A nil Matcher ignores nothing.
func (m *Matcher) IsIgnored(rel string) bool {
	if m == nil {
		return false
	}
	rel = normalize(rel)
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	if m.matcher.Match(parts, false) {
		return true
	}
	if matchAny(m.exclude, rel) {
		return true
	}
	if len(m.include) > 0 && !matchAny(m.include, rel) {
		return true
	}
	return false
}

// IsIgnoredDir reports whether traversal should not descend into rel.
// Include globs never prune directories.
func (m *Matcher) IsIgnoredDir(rel string) bool {
	if m == nil {
		return false
	}
	rel = normalize(rel)
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	if m.matcher.Match(parts, true) {
		return true
	}
	return matchAny(m.exclude, rel)
}

func matchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

func normalize(rel string) string {
	return strings.TrimPrefix(filepath.ToSlash(rel), "./")
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
