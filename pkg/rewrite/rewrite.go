// Package rewrite replaces old asset identifiers with new ones in every text
// file under a target root.
package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/cachebust/pkg/ignore"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/rename"
	"github.com/fulmenhq/cachebust/pkg/safeio"
	"github.com/fulmenhq/cachebust/pkg/textenc"
)

// DefaultSniffBytes is the classifier sample size used by the CLI.
const DefaultSniffBytes = 1024

// Options configures a rewrite pass. Zero values are usable: UTF-8, the
// decode classifier, whole-file sampling and no ignore rules.
type Options struct {
	Codec      textenc.Codec
	Classifier textenc.Classifier
	// SniffBytes is how much of each file the classifier sees; 0 means all.
	SniffBytes int
	Matcher    *ignore.Matcher
	DryRun     bool
}

// FileChange is one rewritten file.
type FileChange struct {
	Path         string `json:"path"`
	Replacements int    `json:"replacements"`
}

// FileFailure is a file that could not be read, encoded or written.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report tallies a rewrite pass. FilesScanned counts files decoded as text;
// Ignored counts ignored files plus pruned directories.
type Report struct {
	FilesScanned  int           `json:"files_scanned"`
	FilesChanged  int           `json:"files_changed"`
	BinarySkipped int           `json:"binary_skipped"`
	Ignored       int           `json:"ignored"`
	Changed       []FileChange  `json:"changed"`
	Failures      []FileFailure `json:"failures,omitempty"`
}

// Replacements sums substitutions across changed files.
func (r *Report) Replacements() int {
	n := 0
	for _, c := range r.Changed {
		n += c.Replacements
	}
	return n
}

// Rewrite walks root in lexical order and applies pairs, in the order given,
// to every text file. Each pair replaces all of its occurrences before the
// next pair runs, so a new identifier that contains a later old identifier
// is rewritten again. Files are written only when their content changed.
func Rewrite(root string, pairs []mapping.Pair, opts Options) (*Report, error) {
	if err := rename.CheckRoot(root); err != nil {
		return nil, err
	}
	codec := opts.Codec
	if codec == nil {
		codec = textenc.UTF8()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = textenc.NewDecodeClassifier(codec, false)
	}

	report := &Report{Changed: []FileChange{}}
	fail := func(rel string, err error) {
		report.Failures = append(report.Failures, FileFailure{Path: rel, Error: err.Error()})
		logger.Error("rewrite failed", logger.String("path", rel), logger.Err(err))
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			fail(rel, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if opts.Matcher.IsIgnoredDir(rel) {
				report.Ignored++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.Matcher.IsIgnored(rel) {
			report.Ignored++
			return nil
		}

		n, err := rewriteFile(p, rel, pairs, codec, classifier, opts)
		if n >= 0 {
			report.FilesScanned++
		}
		switch {
		case n == binaryFile:
			report.BinarySkipped++
			logger.Trace("binary, skipping", logger.String("path", rel))
		case err != nil:
			fail(rel, err)
		case n > 0:
			report.FilesChanged++
			report.Changed = append(report.Changed, FileChange{Path: rel, Replacements: n})
			logger.Info("updated references", logger.String("path", rel), logger.Int("replacements", n))
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", root, err)
	}
	return report, nil
}

const (
	binaryFile = -1
	unreadable = -2
)

// rewriteFile returns the number of substitutions made, binaryFile for a
// file that is not text in the codec, or unreadable when the read failed.
// A file that only fails to decode past the classifier's sample is binary
// too.
func rewriteFile(path, rel string, pairs []mapping.Pair, codec textenc.Codec, classifier textenc.Classifier, opts Options) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- walked path under root
	if err != nil {
		return unreadable, err
	}

	sample, complete := data, true
	if opts.SniffBytes > 0 && len(data) > opts.SniffBytes {
		sample, complete = data[:opts.SniffBytes], false
	}
	if classifier.Classify(rel, sample, complete) == textenc.Binary {
		return binaryFile, nil
	}

	text, err := codec.Decode(data)
	if errors.Is(err, textenc.ErrUndecodable) {
		return binaryFile, nil
	}
	if err != nil {
		return 0, fmt.Errorf("decode as %s: %w", codec.Name(), err)
	}

	updated, n := Apply(text, pairs)
	if n == 0 || updated == text {
		return 0, nil
	}

	out, err := codec.Encode(updated)
	if err != nil {
		return 0, fmt.Errorf("encode as %s: %w", codec.Name(), err)
	}
	if !opts.DryRun {
		if err := safeio.WriteFilePreservePerms(path, out); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Apply substitutes every pair in sequence and returns the result with the
// total number of replacements.
func Apply(text string, pairs []mapping.Pair) (string, int) {
	total := 0
	for _, p := range pairs {
		if p.Old == "" {
			continue
		}
		n := strings.Count(text, p.Old)
		if n == 0 {
			continue
		}
		text = strings.ReplaceAll(text, p.Old, p.New)
		total += n
	}
	return text, total
}
