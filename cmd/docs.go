package cmd

import (
	"errors"
	"os"

	"github.com/fulmenhq/cachebust/pkg/docgen"
	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/spf13/cobra"
)

func newDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Write the build reference document",
		Long: `Render a Markdown build reference that maps production file names and
minified DOM identifiers back to their sources. The file table comes from
--script (a build script holding the table) or from the configured mapping.`,
		Args: cobra.NoArgs,
		RunE: runDocs,
	}
	addMappingFlags(cmd.Flags())
	cmd.Flags().String("script", "", "Build script to extract the file table from")
	cmd.Flags().String("variable", "", "Name assigned the table in --script")
	cmd.Flags().String("obfuscation-map", "", "JSON object of DOM name to minified code")
	cmd.Flags().StringP("output", "o", "", "Output path, - for stdout")
	cmd.Flags().String("title", "", "Document title")
	return cmd
}

func runDocs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	if flagChanged(cmd, "script") {
		cfg.Docs.Script, _ = fs.GetString("script")
	}
	if flagChanged(cmd, "variable") {
		cfg.Docs.Variable, _ = fs.GetString("variable")
	}
	if flagChanged(cmd, "obfuscation-map") {
		cfg.Docs.ObfuscationMap, _ = fs.GetString("obfuscation-map")
	}
	if flagChanged(cmd, "output") {
		cfg.Docs.Output, _ = fs.GetString("output")
	}
	if flagChanged(cmd, "title") {
		cfg.Docs.Title, _ = fs.GetString("title")
	}

	var pairs []mapping.Pair
	if cfg.Docs.Script != "" {
		pairs, err = mapping.ExtractAssignmentFile(cfg.Docs.Script, cfg.Docs.Variable)
		if err != nil {
			return exitcode.Wrap(exitcode.ConfigError, err)
		}
	} else if pairs, err = loadPairs(cfg); err != nil {
		return err
	}
	files, issues := mapping.Build(pairs)
	warnIssues(issues)
	logger.Info("loaded file mappings", logger.Int("entries", files.Len()))

	var classes map[string]string
	if cfg.Docs.ObfuscationMap != "" {
		classes, err = docgen.LoadObfuscationMap(cfg.Docs.ObfuscationMap)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("obfuscation map not found; DOM table will be empty", logger.String("path", cfg.Docs.ObfuscationMap))
		case err != nil:
			return exitcode.Wrap(exitcode.ConfigError, err)
		default:
			logger.Info("loaded class mappings", logger.Int("entries", len(classes)))
		}
	}

	opts := docgen.Options{Title: cfg.Docs.Title}
	if cfg.Docs.Output == "-" {
		return docgen.Render(cmd.OutOrStdout(), files, classes, opts)
	}
	if err := docgen.WriteFile(cfg.Docs.Output, files, classes, opts); err != nil {
		return exitcode.Wrap(exitcode.FileSystemError, err)
	}
	logger.Info("wrote build reference", logger.String("path", cfg.Docs.Output))
	return nil
}
