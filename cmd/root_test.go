package cmd

import (
	"testing"

	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestInitializeLogger(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "info", "")
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("no-color", false, "")
	cmd.Flags().Bool("no-op", false, "")

	// This should not panic
	initializeLogger(cmd)
}

func TestInitializeLogger_InvalidLevel(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "invalid", "")
	cmd.Flags().Bool("json", true, "")
	cmd.Flags().Bool("no-color", true, "")
	cmd.Flags().Bool("no-op", true, "")

	// Should default to info level
	initializeLogger(cmd)
}

func TestIsDryRun(t *testing.T) {
	cmd := &cobra.Command{}
	assert.False(t, isDryRun(cmd), "undefined flags read as false")

	cmd.Flags().Bool("no-op", false, "")
	cmd.Flags().Bool("dry-run", false, "")
	assert.False(t, isDryRun(cmd))

	_ = cmd.Flags().Set("dry-run", "true")
	assert.True(t, isDryRun(cmd))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	registerSubcommands(root)

	for _, name := range []string{"run", "rename", "rewrite", "mapping", "docs", "compress", "version"} {
		sub, _, err := root.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, sub.Name())
		}
	}
	assert.NotEmpty(t, rootCmd.Version)
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "bogus")
	assert.Error(t, err)
	assert.Equal(t, exitcode.GeneralError, exitcode.FromError(err))
}
