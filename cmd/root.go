/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"os"

	"github.com/fulmenhq/cachebust/pkg/buildinfo"
	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cachebust",
		Short: "Rename built assets and rewrite every reference to them",
		Long: `cachebust finishes a static site build for cache busting: it renames asset
files according to an old-to-new mapping and rewrites every text file under the
target root so references point at the new names. Binary files are never touched.

Examples:
   cachebust run --root public --mapping mapping.yaml
   cachebust run --no-op                    # show what would change
   cachebust mapping generate --root public --output mapping.yaml
   cachebust docs --script path.py          # write BUILD_REFERENCE.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Report what would change without touching files")
	cmd.PersistentFlags().String("config", "", "Config file (default ./cachebust.yaml when present)")
	cmd.PersistentFlags().String("root", "", "Target root directory (overrides target_root)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("cachebust {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newRenameCommand())
	cmd.AddCommand(newRewriteCommand())
	cmd.AddCommand(newMappingCommand())
	cmd.AddCommand(newDocsCommand())
	cmd.AddCommand(newCompressCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the command tree and exits with the code carried by the
// returned error. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.FromError(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "cachebust",
		NoOp:      isDryRun(cmd),
		Output:    cmd.ErrOrStderr(),
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}

// isDryRun is true for the global --no-op flag or a command's --dry-run.
func isDryRun(cmd *cobra.Command) bool {
	noOp, _ := cmd.Flags().GetBool("no-op")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return noOp || dryRun
}
