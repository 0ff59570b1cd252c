// Package precompress writes brotli-compressed .br siblings next to
// selected files so static servers can serve them directly.
package precompress

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/fulmenhq/cachebust/pkg/ignore"
	"github.com/fulmenhq/cachebust/pkg/logger"
)

// Suffix is appended to the original file name.
const Suffix = ".br"

// DefaultExtensions are compressed when none are configured.
var DefaultExtensions = []string{".css", ".js", ".html", ".svg", ".json"}

// Options configures a compression pass.
type Options struct {
	Extensions []string
	// Quality is the brotli level, 0-11. Out-of-range values use
	// brotli.BestCompression.
	Quality int
	Matcher *ignore.Matcher
	DryRun  bool
}

// File describes one compressed file.
type File struct {
	Path           string `json:"path"`
	Size           int    `json:"size"`
	CompressedSize int    `json:"compressed_size"`
}

// Failure is a file that could not be compressed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report tallies a compression pass.
type Report struct {
	Written  int       `json:"written"`
	Files    []File    `json:"files"`
	Failures []Failure `json:"failures,omitempty"`
}

// Compress walks root and writes <file>.br for every file whose extension is
// selected. Originals are kept. Failures are recorded and the walk continues.
func Compress(root string, opts Options) (*Report, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	quality := opts.Quality
	if quality < brotli.BestSpeed || quality > brotli.BestCompression {
		quality = brotli.BestCompression
	}

	// Collect first so freshly written .br files are never revisited.
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if opts.Matcher.IsIgnoredDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !opts.Matcher.IsIgnored(rel) && selected(rel, exts) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	report := &Report{Files: []File{}}
	for _, rel := range files {
		f, err := compressFile(filepath.Join(root, filepath.FromSlash(rel)), quality, opts.DryRun)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Path: rel, Error: err.Error()})
			logger.Error("compress failed", logger.String("path", rel), logger.Err(err))
			continue
		}
		f.Path = rel
		report.Written++
		report.Files = append(report.Files, f)
		logger.Debug("compressed", logger.String("path", rel+Suffix),
			logger.Int("size", f.Size), logger.Int("compressed_size", f.CompressedSize))
	}
	return report, nil
}

func selected(rel string, exts []string) bool {
	if strings.HasSuffix(rel, Suffix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(rel))
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func compressFile(path string, quality int, dryRun bool) (File, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- walked path under root
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, quality)
	if _, err := w.Write(src); err != nil {
		return File{}, err
	}
	if err := w.Close(); err != nil {
		return File{}, err
	}

	if !dryRun {
		if err := os.WriteFile(path+Suffix, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- public web assets
			return File{}, err
		}
	}
	return File{Size: len(src), CompressedSize: buf.Len()}, nil
}
