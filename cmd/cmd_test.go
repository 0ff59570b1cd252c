package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree from the given working directory.
func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	root := newRootCommand()
	registerSubcommands(root)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

const siteMapping = `version: 1
entries:
  - old: styles/index.css
    new: styles/0/b1c2xa.css
  - old: src/app.js
    new: src/d3e4xjs.js
`

// newSite returns a working directory holding mapping.yaml and a public/
// target root.
func newSite(t *testing.T) (dir, root string) {
	t.Helper()
	dir = t.TempDir()
	root = filepath.Join(dir, "public")
	writeFile(t, root, "styles/index.css", "body{}")
	writeFile(t, root, "src/app.js", "run()")
	writeFile(t, root, "index.html", `<link href="styles/index.css"><script src="src/app.js"></script>`)
	writeFile(t, dir, "mapping.yaml", siteMapping)
	return dir, root
}
