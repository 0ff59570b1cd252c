package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/cachebust/pkg/config"
	"github.com/fulmenhq/cachebust/pkg/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	dir, root := newSite(t)

	out, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml")
	require.NoError(t, err)

	assert.Equal(t, "body{}", readFile(t, root, "styles/0/b1c2xa.css"))
	assert.Equal(t, `<link href="styles/0/b1c2xa.css"><script src="src/d3e4xjs.js"></script>`, readFile(t, root, "index.html"))
	assert.Contains(t, out, "cachebust summary")
	assert.Contains(t, out, "Renamed")

	// second run changes nothing
	_, _, err = execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml")
	require.NoError(t, err)
	assert.Equal(t, `<link href="styles/0/b1c2xa.css"><script src="src/d3e4xjs.js"></script>`, readFile(t, root, "index.html"))
}

func TestRunCommandFromConfigFile(t *testing.T) {
	dir, root := newSite(t)
	writeFile(t, dir, "cachebust.yaml", `target_root: public
mapping:
  - old: src/app.js
    new: src/appxjs.js
report:
  output: out/report.json
`)

	_, _, err := execute(t, dir, "run")
	require.NoError(t, err)
	assert.Equal(t, "run()", readFile(t, root, "src/appxjs.js"))

	data, err := os.ReadFile(filepath.Join(dir, "out", "report.json"))
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 1, report["entries"])
}

func TestRunCommandReportInsideRootIsNotRewritten(t *testing.T) {
	dir, root := newSite(t)

	_, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--report", "public/report.json")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, root, "report.json"), `"old": "styles/index.css"`)

	out, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--report", "public/report.json", "--format", "json")
	require.NoError(t, err)
	var report struct {
		Rewrite struct {
			FilesChanged int `json:"files_changed"`
		} `json:"rewrite"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Rewrite.FilesChanged)
}

func TestOutputPatterns(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := &config.Config{TargetRoot: "public"}
	cfg.Report.Output = "public/out/report.json"
	cfg.Docs.Output = "BUILD_REFERENCE.md"
	assert.Equal(t, []string{"/out/report.json"}, outputPatterns(cfg))

	cfg.TargetRoot = "."
	cfg.Report.Output = "-"
	assert.Equal(t, []string{"/BUILD_REFERENCE.md"}, outputPatterns(cfg))
}

func TestRunCommandJSONOutput(t *testing.T) {
	dir, _ := newSite(t)

	out, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--format", "json", "--dry-run")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["dry_run"])
}

func TestRunCommandNoOpLeavesTree(t *testing.T) {
	dir, root := newSite(t)

	_, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--no-op")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "styles", "index.css"))
	assert.Contains(t, readFile(t, root, "index.html"), "styles/index.css")
}

func TestRunCommandMissingRoot(t *testing.T) {
	dir, _ := newSite(t)

	_, _, err := execute(t, dir, "run", "--root", "absent", "--mapping", "mapping.yaml")
	require.Error(t, err)
	assert.Equal(t, exitcode.FileSystemError, exitcode.FromError(err))
}

func TestRunCommandFailuresExitNonZero(t *testing.T) {
	dir, root := newSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fonts"), 0o755))
	writeFile(t, dir, "dirs.yaml", "entries:\n  - old: fonts\n    new: fonts2\n  - old: src/app.js\n    new: src/appxjs.js\n")

	_, errOut, err := execute(t, dir, "run", "--root", "public", "--mapping", "dirs.yaml")
	require.Error(t, err)
	assert.Equal(t, exitcode.FileSystemError, exitcode.FromError(err))
	assert.Contains(t, errOut, "rename fonts")
	assert.FileExists(t, filepath.Join(root, "src", "appxjs.js"), "the run completes despite failures")
}

func TestRunCommandConfigErrors(t *testing.T) {
	dir, _ := newSite(t)

	_, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "absent.yaml")
	assert.Equal(t, exitcode.ConfigError, exitcode.FromError(err))

	_, _, err = execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--encoding", "klingon")
	assert.Equal(t, exitcode.ConfigError, exitcode.FromError(err))

	_, _, err = execute(t, dir, "run", "--order", "shortest-first")
	assert.Error(t, err)

	_, _, err = execute(t, dir, "run", "--format", "xml")
	assert.Error(t, err)
}

func TestRunCommandPrecompress(t *testing.T) {
	dir, root := newSite(t)

	_, _, err := execute(t, dir, "run", "--root", "public", "--mapping", "mapping.yaml", "--precompress")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "index.html.br"))
	assert.FileExists(t, filepath.Join(root, "styles", "0", "b1c2xa.css.br"))
}
