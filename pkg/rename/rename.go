// Package rename moves asset files to their new names under a target root.
package rename

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/safeio"
)

// ErrRootNotFound is returned when the target root is missing or not a
// directory. Nothing is touched in that case.
var ErrRootNotFound = errors.New("target root not found")

// Status is the outcome of one mapping entry.
type Status string

const (
	StatusRenamed         Status = "renamed"
	StatusSkippedExisting Status = "skipped-existing"
	StatusMissing         Status = "missing"
	// StatusOutsideRoot marks identifiers that resolve outside the root,
	// such as "../core/app.js". They are rewritten but never moved.
	StatusOutsideRoot Status = "outside-root"
	StatusFailed      Status = "failed"
)

// EntryResult records what happened to one pair.
type EntryResult struct {
	Old    string `json:"old"`
	New    string `json:"new"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report tallies a rename pass.
type Report struct {
	Renamed         int           `json:"renamed"`
	SkippedExisting int           `json:"skipped_existing"`
	Missing         int           `json:"missing"`
	OutsideRoot     int           `json:"outside_root"`
	Failed          int           `json:"failed"`
	Entries         []EntryResult `json:"entries"`
}

// Failures returns the entries that failed.
func (r *Report) Failures() []EntryResult {
	var out []EntryResult
	for _, e := range r.Entries {
		if e.Status == StatusFailed {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) add(e EntryResult) {
	switch e.Status {
	case StatusRenamed:
		r.Renamed++
	case StatusSkippedExisting:
		r.SkippedExisting++
	case StatusMissing:
		r.Missing++
	case StatusOutsideRoot:
		r.OutsideRoot++
	case StatusFailed:
		r.Failed++
	}
	r.Entries = append(r.Entries, e)
}

// Options configures a rename pass.
type Options struct {
	// DryRun reports what would happen without touching the disk.
	DryRun bool
}

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}
	return nil
}

// Rename applies pairs in order. An existing destination wins over the
// source, which keeps repeated runs from doing anything. Per-entry failures
// are recorded and the pass continues; only a missing root is returned as an
// error.
func Rename(root string, pairs []mapping.Pair, opts Options) (*Report, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	report := &Report{Entries: make([]EntryResult, 0, len(pairs))}
	for _, p := range pairs {
		res := renameOne(root, p, opts)
		report.add(res)

		fields := []logger.Field{logger.String("old", p.Old), logger.String("new", p.New)}
		switch res.Status {
		case StatusRenamed:
			logger.Info("renamed", fields...)
		case StatusSkippedExisting:
			logger.Debug("destination exists, skipping", fields...)
		case StatusMissing:
			logger.Warn("source missing", fields...)
		case StatusOutsideRoot:
			logger.Debug("outside the target root, rewrite only", fields...)
		case StatusFailed:
			logger.Error("rename failed", append(fields, logger.String("error", res.Error))...)
		}
	}
	return report, nil
}

func renameOne(root string, p mapping.Pair, opts Options) EntryResult {
	res := EntryResult{Old: p.Old, New: p.New}
	src, err := safeio.JoinContained(root, p.Old)
	if err == nil {
		var dst string
		if dst, err = safeio.JoinContained(root, p.New); err == nil {
			return move(src, dst, res, opts)
		}
	}
	if errors.Is(err, safeio.ErrTraversal) {
		res.Status = StatusOutsideRoot
		return res
	}
	res.Status = StatusFailed
	res.Error = err.Error()
	return res
}

func move(src, dst string, res EntryResult, opts Options) EntryResult {
	fail := func(err error) EntryResult {
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	if safeio.Exists(dst) {
		res.Status = StatusSkippedExisting
		return res
	}

	info, err := os.Lstat(src)
	switch {
	case errors.Is(err, os.ErrNotExist):
		res.Status = StatusMissing
		return res
	case err != nil:
		return fail(err)
	case !info.Mode().IsRegular():
		return fail(fmt.Errorf("%s is not a regular file", res.Old))
	}

	if opts.DryRun {
		res.Status = StatusRenamed
		return res
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fail(fmt.Errorf("create parent directory: %w", err))
	}
	if err := os.Rename(src, dst); err != nil {
		return fail(err)
	}
	res.Status = StatusRenamed
	return res
}
