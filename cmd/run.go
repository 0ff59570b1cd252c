package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/pipeline"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename assets, then rewrite references to them",
		Long: `Run the full pass over the target root: every mapping entry is renamed on
disk, then every text file is rewritten so old identifiers become new ones.
Running twice is safe; the second run renames and rewrites nothing.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	addMappingFlags(cmd.Flags())
	addRewriteFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "Report what would change without touching files")
	cmd.Flags().String("report", "", "Write a JSON report to this path")
	cmd.Flags().Bool("precompress", false, "Write brotli .br siblings after rewriting")
	cmd.Flags().String("format", "text", "Output format (text|json)")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pairs, err := loadPairs(cfg)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		logger.Warn("mapping is empty; nothing will be renamed or rewritten")
	}
	opts, err := pipelineOptions(cfg, pairs, isDryRun(cmd))
	if err != nil {
		return err
	}

	report, err := pipeline.Run(opts)
	if err != nil {
		return fsError(err)
	}

	if cfg.Report.Output != "" {
		if err := report.WriteJSONFile(cfg.Report.Output); err != nil {
			return fsError(err)
		}
		logger.Info("wrote report", logger.String("path", cfg.Report.Output))
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := report.WriteJSON(out); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprint(out, report.Summary())
	}

	failures := report.FailureLines(160)
	for _, line := range failures {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), line)
	}
	return summaryError("run finished with failures", len(failures))
}
