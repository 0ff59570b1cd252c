package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameCommand(t *testing.T) {
	dir, root := newSite(t)

	out, _, err := execute(t, dir, "rename", "--root", "public", "--mapping", "mapping.yaml")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "styles", "0", "b1c2xa.css"))
	assert.Contains(t, readFile(t, root, "index.html"), "styles/index.css", "rename never rewrites")
	assert.Contains(t, out, "renamed")
	assert.Contains(t, out, "2 renamed, 0 skipped (exists), 0 missing, 0 outside root, 0 failed")
}

func TestRewriteCommand(t *testing.T) {
	dir, root := newSite(t)

	out, _, err := execute(t, dir, "rewrite", "--root", "public", "--mapping", "mapping.yaml")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "styles", "index.css"), "rewrite never renames")
	assert.Contains(t, readFile(t, root, "index.html"), "styles/0/b1c2xa.css")
	assert.Contains(t, out, "index.html (2)")
}

func TestRewriteCommandExclude(t *testing.T) {
	dir, root := newSite(t)

	_, _, err := execute(t, dir, "rewrite", "--root", "public", "--mapping", "mapping.yaml", "--exclude", "*.html")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, root, "index.html"), "styles/index.css")
}
