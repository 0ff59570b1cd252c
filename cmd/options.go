package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/cachebust/pkg/config"
	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/fulmenhq/cachebust/pkg/ignore"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/pipeline"
	"github.com/fulmenhq/cachebust/pkg/precompress"
	"github.com/fulmenhq/cachebust/pkg/rename"
	"github.com/fulmenhq/cachebust/pkg/textenc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addMappingFlags registers the flags shared by commands that consume a mapping.
func addMappingFlags(fs *pflag.FlagSet) {
	fs.String("mapping", "", "Mapping file (.yaml, .json, .toml); overrides mapping_file")
	order := mapping.OrderLongestFirst
	fs.Var(&order, "order", "Substitution order (longest-first|as-given)")
}

// addRewriteFlags registers the flags that shape the rewrite walk.
func addRewriteFlags(fs *pflag.FlagSet) {
	fs.String("encoding", textenc.DefaultEncoding, "Text encoding of files under the root")
	fs.Int("sniff-bytes", 1024, "Bytes sampled for binary detection (0 = whole file)")
	fs.String("classifier", textenc.ModeDecode, "Binary detection mode (decode|strict)")
	addIgnoreFlags(fs)
}

// addIgnoreFlags registers the flags that feed the ignore matcher.
func addIgnoreFlags(fs *pflag.FlagSet) {
	fs.StringSlice("include", nil, "Only process files matching these globs")
	fs.StringSlice("exclude", nil, "Skip files and directories matching these globs")
	fs.Bool("gitignore", false, "Also skip paths matched by .gitignore files")
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// loadConfig reads the config file and environment, applies explicitly set
// flags on top, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}

	fs := cmd.Flags()
	if flagChanged(cmd, "root") {
		cfg.TargetRoot, _ = fs.GetString("root")
	}
	if flagChanged(cmd, "mapping") {
		cfg.MappingFile, _ = fs.GetString("mapping")
	}
	if flagChanged(cmd, "order") {
		cfg.Order = fs.Lookup("order").Value.String()
	}
	if flagChanged(cmd, "encoding") {
		cfg.Rewrite.Encoding, _ = fs.GetString("encoding")
	}
	if flagChanged(cmd, "sniff-bytes") {
		cfg.Rewrite.SniffBytes, _ = fs.GetInt("sniff-bytes")
	}
	if flagChanged(cmd, "classifier") {
		cfg.Rewrite.Classifier, _ = fs.GetString("classifier")
	}
	if flagChanged(cmd, "include") {
		cfg.Rewrite.Include, _ = fs.GetStringSlice("include")
	}
	if flagChanged(cmd, "exclude") {
		cfg.Rewrite.Exclude, _ = fs.GetStringSlice("exclude")
	}
	if flagChanged(cmd, "gitignore") {
		cfg.Rewrite.UseGitignore, _ = fs.GetBool("gitignore")
	}
	if flagChanged(cmd, "report") {
		cfg.Report.Output, _ = fs.GetString("report")
	}
	if flagChanged(cmd, "precompress") {
		cfg.Precompress.Enabled, _ = fs.GetBool("precompress")
	}

	if err := cfg.Validate(); err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}
	return cfg, nil
}

// loadPairs returns the configured mapping table.
func loadPairs(cfg *config.Config) ([]mapping.Pair, error) {
	pairs, err := cfg.MappingPairs()
	if err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}
	return pairs, nil
}

// newMatcher builds the ignore rules for cfg's target root. Files this tool
// writes (the run report, the build reference) are excluded when they live
// under the root: they list old identifiers and must survive later runs.
func newMatcher(cfg *config.Config) (*ignore.Matcher, error) {
	m, err := ignore.NewMatcher(cfg.TargetRoot, ignore.Options{
		Include:      cfg.Rewrite.Include,
		Exclude:      cfg.Rewrite.Exclude,
		UseGitignore: cfg.Rewrite.UseGitignore,
		Patterns:     outputPatterns(cfg),
	})
	if err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}
	return m, nil
}

// outputPatterns returns root-anchored ignore lines for generated files that
// sit under the target root.
func outputPatterns(cfg *config.Config) []string {
	rootAbs, err := filepath.Abs(cfg.TargetRoot)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, out := range []string{cfg.Report.Output, cfg.Docs.Output} {
		if out == "" || out == "-" {
			continue
		}
		outAbs, err := filepath.Abs(out)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, outAbs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		logger.Debug("excluding generated file from the walk", logger.String("path", out))
		patterns = append(patterns, "/"+filepath.ToSlash(rel))
	}
	return patterns
}

// pipelineOptions turns a validated config into run options.
func pipelineOptions(cfg *config.Config, pairs []mapping.Pair, dryRun bool) (pipeline.Options, error) {
	order, err := mapping.ParseOrder(cfg.Order)
	if err != nil {
		return pipeline.Options{}, exitcode.Wrap(exitcode.ConfigError, err)
	}
	codec, err := textenc.Lookup(cfg.Rewrite.Encoding)
	if err != nil {
		return pipeline.Options{}, exitcode.Wrap(exitcode.ConfigError, err)
	}
	if err := rename.CheckRoot(cfg.TargetRoot); err != nil {
		return pipeline.Options{}, exitcode.Wrap(exitcode.FileSystemError, err)
	}
	matcher, err := newMatcher(cfg)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Root:       cfg.TargetRoot,
		Pairs:      pairs,
		Order:      order,
		Codec:      codec,
		Classifier: textenc.NewClassifier(cfg.Rewrite.Classifier, codec),
		SniffBytes: cfg.Rewrite.SniffBytes,
		Matcher:    matcher,
		DryRun:     dryRun,
	}
	if cfg.Precompress.Enabled {
		opts.Precompress = &precompress.Options{
			Extensions: cfg.Precompress.Extensions,
			Quality:    cfg.Precompress.Quality,
		}
	}
	return opts, nil
}

// fsError tags run-time errors: a missing root is a file system error.
func fsError(err error) error {
	if err == nil {
		return nil
	}
	var coded *exitcode.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, rename.ErrRootNotFound) {
		return exitcode.Wrap(exitcode.FileSystemError, err)
	}
	return exitcode.Wrap(exitcode.GeneralError, err)
}

func failureCount(n int) error {
	return exitcode.Errorf(exitcode.FileSystemError, "%d file operation(s) failed", n)
}

func summaryError(what string, n int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", what, failureCount(n))
}
