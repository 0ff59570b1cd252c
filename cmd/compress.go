package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/fulmenhq/cachebust/pkg/precompress"
	"github.com/spf13/cobra"
)

func newCompressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Write brotli .br siblings for assets under the target root",
		Args:  cobra.NoArgs,
		RunE:  runCompress,
	}
	cmd.Flags().StringSlice("ext", nil, "Extensions to compress; overrides precompress.extensions")
	cmd.Flags().Int("quality", 11, "Brotli quality 0-11; overrides precompress.quality")
	addIgnoreFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "Report what would be written without touching files")
	return cmd
}

func runCompress(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagChanged(cmd, "ext") {
		cfg.Precompress.Extensions, _ = cmd.Flags().GetStringSlice("ext")
	}
	if flagChanged(cmd, "quality") {
		cfg.Precompress.Quality, _ = cmd.Flags().GetInt("quality")
	}
	if err := cfg.Validate(); err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}
	opts, err := pipelineOptions(cfg, nil, isDryRun(cmd))
	if err != nil {
		return err
	}

	report, err := precompress.Compress(cfg.TargetRoot, precompress.Options{
		Extensions: cfg.Precompress.Extensions,
		Quality:    cfg.Precompress.Quality,
		Matcher:    opts.Matcher,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return fsError(err)
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		_, _ = fmt.Fprintf(out, "%s%s  %d -> %d\n", f.Path, precompress.Suffix, f.Size, f.CompressedSize)
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "compress %s: %s\n", f.Path, f.Error)
	}
	return summaryError("compress finished with failures", len(report.Failures))
}
