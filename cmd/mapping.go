package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/fulmenhq/cachebust/pkg/ascii"
	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/fulmenhq/cachebust/pkg/logger"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/spf13/cobra"
)

func newMappingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect, validate, generate and extract mapping tables",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective mapping in substitution order",
		Args:  cobra.NoArgs,
		RunE:  runMappingShow,
	}
	addMappingFlags(show.Flags())
	show.Flags().String("format", "table", "Output format (table|yaml|json|toml)")

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a mapping file against the schema and entry rules",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMappingValidate,
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Propose new names for assets under the target root",
		Long: `Walk the target root and propose new names for matching assets.

--keys path emits root-relative paths, which rename files and rewrite
references spelled from the root. --keys name emits bare file names, which
also rewrite relative references like href="index.css". --keys both emits
both, so a single run renames every file and fixes relative references.`,
		Args: cobra.NoArgs,
		RunE: runMappingGenerate,
	}
	generate.Flags().String("strategy", "", "Naming strategy (suffix|hash); overrides generate.strategy")
	generate.Flags().StringSlice("pattern", nil, "Globs selecting assets; overrides generate.patterns")
	generate.Flags().Int("hash-length", 0, "Hex digits kept by the hash strategy")
	generate.Flags().String("keys", "", "Identifiers to emit (path|name|both); overrides generate.keys")
	generate.Flags().StringP("output", "o", "", "Write the mapping file here instead of stdout")
	addIgnoreFlags(generate.Flags())

	extract := &cobra.Command{
		Use:   "extract <script>",
		Short: "Recover a mapping table assigned in a build script",
		Long: `Read NAME = { "old": "new", ... } out of a script without running it and
emit it as a mapping document.`,
		Args: cobra.ExactArgs(1),
		RunE: runMappingExtract,
	}
	extract.Flags().String("variable", "", "Assigned name to look for (default docs.variable)")
	extract.Flags().StringP("output", "o", "", "Write the mapping file here instead of stdout")

	cmd.AddCommand(show, validate, generate, extract)
	return cmd
}

func warnIssues(issues []mapping.Issue) {
	for _, issue := range issues {
		logger.Warn("ignoring mapping entry", logger.Int("index", issue.Index),
			logger.String("old", issue.Old), logger.String("new", issue.New),
			logger.String("reason", issue.Reason))
	}
}

// emitMapping writes pairs to path, or to out as YAML when path is empty.
func emitMapping(out io.Writer, path string, pairs []mapping.Pair) error {
	if path != "" {
		if err := mapping.WriteFile(path, pairs); err != nil {
			return exitcode.Wrap(exitcode.FileSystemError, err)
		}
		logger.Info("wrote mapping", logger.String("path", path), logger.Int("entries", len(pairs)))
		return nil
	}
	data, err := mapping.Encode(pairs, mapping.FormatYAML)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runMappingShow(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pairs, err := loadPairs(cfg)
	if err != nil {
		return err
	}
	order, err := mapping.ParseOrder(cfg.Order)
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}
	m, issues := mapping.Build(pairs)
	warnIssues(issues)
	ordered := m.Ordered(order)

	out := cmd.OutOrStdout()
	switch format {
	case "table":
		rows := [][]string{{"OLD", "NEW"}}
		for _, p := range ordered {
			rows = append(rows, []string{p.Old, p.New})
		}
		for _, line := range ascii.Table(rows) {
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	case "yaml", "json", "toml":
		data, err := mapping.Encode(ordered, mapping.Format(format))
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (want table, yaml, json or toml)", format)
	}
}

func runMappingValidate(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path = cfg.MappingFile
	}
	if path == "" {
		return exitcode.Errorf(exitcode.ConfigError, "no mapping file given and mapping_file is not set")
	}

	pairs, err := mapping.LoadFile(path)
	if err != nil {
		var verr *mapping.ValidationError
		if errors.As(err, &verr) {
			for _, e := range verr.Errors {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, e.String())
			}
			return exitcode.Wrap(exitcode.ValidationError, err)
		}
		return exitcode.Wrap(exitcode.ConfigError, err)
	}

	m, issues := mapping.Build(pairs)
	for _, issue := range issues {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, issue.String())
	}
	if len(issues) > 0 {
		return exitcode.Errorf(exitcode.ValidationError, "%s: %d invalid entries", path, len(issues))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d entries)\n", path, m.Len())
	return nil
}

func runMappingGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagChanged(cmd, "strategy") {
		cfg.Generate.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if flagChanged(cmd, "pattern") {
		cfg.Generate.Patterns, _ = cmd.Flags().GetStringSlice("pattern")
	}
	if flagChanged(cmd, "hash-length") {
		cfg.Generate.HashLength, _ = cmd.Flags().GetInt("hash-length")
	}
	if flagChanged(cmd, "keys") {
		cfg.Generate.Keys, _ = cmd.Flags().GetString("keys")
	}
	keys, err := mapping.ParseKeyStyle(cfg.Generate.Keys)
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}
	output, _ := cmd.Flags().GetString("output")

	strategy, err := mapping.StrategyByName(cfg.Generate.Strategy, cfg.Generate.Rules, cfg.Generate.HashLength)
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}
	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	m, issues, err := mapping.Generate(cfg.TargetRoot, mapping.GenerateOptions{
		Patterns: cfg.Generate.Patterns,
		Strategy: strategy,
		Matcher:  matcher,
		Keys:     keys,
	})
	if err != nil {
		return exitcode.Wrap(exitcode.FileSystemError, err)
	}
	warnIssues(issues)
	return emitMapping(cmd.OutOrStdout(), output, m.Pairs())
}

func runMappingExtract(cmd *cobra.Command, args []string) error {
	variable, _ := cmd.Flags().GetString("variable")
	output, _ := cmd.Flags().GetString("output")
	if variable == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		variable = cfg.Docs.Variable
	}

	pairs, err := mapping.ExtractAssignmentFile(args[0], variable)
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}
	m, issues := mapping.Build(pairs)
	warnIssues(issues)
	return emitMapping(cmd.OutOrStdout(), output, m.Pairs())
}
