package cmd

import (
	"fmt"

	"github.com/fulmenhq/cachebust/pkg/ascii"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/rename"
	"github.com/spf13/cobra"
)

func newRenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Only rename files on disk",
		Args:  cobra.NoArgs,
		RunE:  runRename,
	}
	addMappingFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "Report what would change without touching files")
	return cmd
}

func runRename(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pairs, err := loadPairs(cfg)
	if err != nil {
		return err
	}
	m, _ := mapping.Build(pairs)

	report, err := rename.Rename(cfg.TargetRoot, m.Pairs(), rename.Options{DryRun: isDryRun(cmd)})
	if err != nil {
		return fsError(err)
	}

	rows := [][]string{{"STATUS", "OLD", "NEW"}}
	for _, e := range report.Entries {
		rows = append(rows, []string{string(e.Status), e.Old, e.New})
	}
	out := cmd.OutOrStdout()
	for _, line := range ascii.Table(rows) {
		_, _ = fmt.Fprintln(out, line)
	}
	_, _ = fmt.Fprintf(out, "\n%d renamed, %d skipped (exists), %d missing, %d outside root, %d failed\n",
		report.Renamed, report.SkippedExisting, report.Missing, report.OutsideRoot, report.Failed)

	return summaryError("rename finished with failures", report.Failed)
}
