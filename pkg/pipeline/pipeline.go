// Package pipeline runs the full cache-busting pass over a target root:
// rename assets, rewrite references to them, optionally precompress.
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fulmenhq/cachebust/pkg/ascii"
	"github.com/fulmenhq/cachebust/pkg/ignore"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/precompress"
	"github.com/fulmenhq/cachebust/pkg/rename"
	"github.com/fulmenhq/cachebust/pkg/rewrite"
	"github.com/fulmenhq/cachebust/pkg/textenc"
)

// Options is everything a run needs. There is no global state.
type Options struct {
	Root  string
	Pairs []mapping.Pair
	Order mapping.Order

	Codec      textenc.Codec
	Classifier textenc.Classifier
	SniffBytes int
	Matcher    *ignore.Matcher

	DryRun bool
	// Precompress enables the brotli pass when non-nil.
	Precompress *precompress.Options
}

// Report is the JSON-serialisable outcome of a run.
type Report struct {
	Root        string              `json:"root"`
	DryRun      bool                `json:"dry_run"`
	Order       mapping.Order       `json:"order"`
	StartedAt   time.Time           `json:"started_at"`
	Duration    string              `json:"duration"`
	Entries     int                 `json:"entries"`
	Issues      []mapping.Issue     `json:"issues,omitempty"`
	Rename      *rename.Report      `json:"rename"`
	Rewrite     *rewrite.Report     `json:"rewrite"`
	Precompress *precompress.Report `json:"precompress,omitempty"`
}

// HasFailures reports whether any entry or file failed.
func (r *Report) HasFailures() bool {
	if r == nil {
		return false
	}
	if r.Rename != nil && r.Rename.Failed > 0 {
		return true
	}
	if r.Rewrite != nil && len(r.Rewrite.Failures) > 0 {
		return true
	}
	return r.Precompress != nil && len(r.Precompress.Failures) > 0
}

// Run validates the mapping, renames files, then rewrites references in
// the order given by opts.Order. A missing root fails before anything is
// touched. Per-entry and per-file failures land in the report, not in err.
func Run(opts Options) (*Report, error) {
	if err := rename.CheckRoot(opts.Root); err != nil {
		return nil, err
	}
	order := opts.Order
	if order == "" {
		order = mapping.OrderLongestFirst
	}

	started := time.Now()
	m, issues := mapping.Build(opts.Pairs)
	for _, issue := range issues {
		logger.Warn("ignoring mapping entry", logger.Int("index", issue.Index),
			logger.String("old", issue.Old), logger.String("new", issue.New),
			logger.String("reason", issue.Reason))
	}

	report := &Report{
		Root:      opts.Root,
		DryRun:    opts.DryRun,
		Order:     order,
		StartedAt: started,
		Entries:   m.Len(),
		Issues:    issues,
	}

	logger.Info("renaming files", logger.String("root", opts.Root), logger.Int("entries", m.Len()))
	renamed, err := rename.Rename(opts.Root, m.Pairs(), rename.Options{DryRun: opts.DryRun})
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	report.Rename = renamed

	logger.Info("rewriting references", logger.String("order", string(order)))
	rewritten, err := rewrite.Rewrite(opts.Root, m.Ordered(order), rewrite.Options{
		Codec:      opts.Codec,
		Classifier: opts.Classifier,
		SniffBytes: opts.SniffBytes,
		Matcher:    opts.Matcher,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}
	report.Rewrite = rewritten

	if opts.Precompress != nil {
		pc := *opts.Precompress
		pc.DryRun = opts.DryRun
		if pc.Matcher == nil {
			pc.Matcher = opts.Matcher
		}
		logger.Info("precompressing assets")
		compressed, err := precompress.Compress(opts.Root, pc)
		if err != nil {
			return nil, fmt.Errorf("precompress: %w", err)
		}
		report.Precompress = compressed
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()
	return report, nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteJSONFile writes the report to path, creating parent directories.
func (r *Report) WriteJSONFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// Summary returns the boxed tally printed at the end of a run.
func (r *Report) Summary() string {
	title := "cachebust summary"
	if r.DryRun {
		title += " (dry run)"
	}
	rows := [][]string{{"Mapping entries", strconv.Itoa(r.Entries)}}
	if len(r.Issues) > 0 {
		rows = append(rows, []string{"Ignored entries", strconv.Itoa(len(r.Issues))})
	}
	if r.Rename != nil {
		rows = append(rows,
			[]string{"Renamed", strconv.Itoa(r.Rename.Renamed)},
			[]string{"Skipped (exists)", strconv.Itoa(r.Rename.SkippedExisting)},
			[]string{"Missing", strconv.Itoa(r.Rename.Missing)},
			[]string{"Outside root", strconv.Itoa(r.Rename.OutsideRoot)},
			[]string{"Rename failures", strconv.Itoa(r.Rename.Failed)},
		)
	}
	if r.Rewrite != nil {
		rows = append(rows,
			[]string{"Files scanned", strconv.Itoa(r.Rewrite.FilesScanned)},
			[]string{"Files changed", strconv.Itoa(r.Rewrite.FilesChanged)},
			[]string{"Replacements", strconv.Itoa(r.Rewrite.Replacements())},
			[]string{"Binary skipped", strconv.Itoa(r.Rewrite.BinarySkipped)},
			[]string{"Rewrite failures", strconv.Itoa(len(r.Rewrite.Failures))},
		)
	}
	if r.Precompress != nil {
		rows = append(rows,
			[]string{"Compressed", strconv.Itoa(r.Precompress.Written)},
			[]string{"Compress failures", strconv.Itoa(len(r.Precompress.Failures))},
		)
	}
	lines := append([]string{title, ""}, ascii.Table(rows)...)
	return ascii.Box(lines)
}

// FailureLines lists every failure as "path: error", widths capped for the
// terminal.
func (r *Report) FailureLines(width int) []string {
	var lines []string
	add := func(kind, path, msg string) {
		lines = append(lines, ascii.Truncate(fmt.Sprintf("%s %s: %s", kind, path, msg), width))
	}
	if r.Rename != nil {
		for _, f := range r.Rename.Failures() {
			add("rename", f.Old, f.Error)
		}
	}
	if r.Rewrite != nil {
		for _, f := range r.Rewrite.Failures {
			add("rewrite", f.Path, f.Error)
		}
	}
	if r.Precompress != nil {
		for _, f := range r.Precompress.Failures {
			add("compress", f.Path, f.Error)
		}
	}
	return lines
}
