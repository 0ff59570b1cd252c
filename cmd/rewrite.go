package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/rewrite"
	"github.com/spf13/cobra"
)

func newRewriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Only rewrite references in text files",
		Args:  cobra.NoArgs,
		RunE:  runRewrite,
	}
	addMappingFlags(cmd.Flags())
	addRewriteFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "Report what would change without touching files")
	return cmd
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pairs, err := loadPairs(cfg)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cfg, pairs, isDryRun(cmd))
	if err != nil {
		return err
	}
	m, _ := mapping.Build(pairs)

	report, err := rewrite.Rewrite(opts.Root, m.Ordered(opts.Order), rewrite.Options{
		Codec:      opts.Codec,
		Classifier: opts.Classifier,
		SniffBytes: opts.SniffBytes,
		Matcher:    opts.Matcher,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return fsError(err)
	}

	out := cmd.OutOrStdout()
	for _, c := range report.Changed {
		_, _ = fmt.Fprintf(out, "%s (%d)\n", c.Path, c.Replacements)
	}
	_, _ = fmt.Fprintf(out, "\n%d scanned, %d changed, %d binary skipped, %d ignored, %d failed\n",
		report.FilesScanned, report.FilesChanged, report.BinarySkipped, report.Ignored, len(report.Failures))
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "rewrite %s: %s\n", f.Path, f.Error)
	}

	return summaryError("rewrite finished with failures", len(report.Failures))
}
