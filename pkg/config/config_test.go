package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.TargetRoot)
	assert.Equal(t, "longest-first", cfg.Order)
	assert.Equal(t, "utf-8", cfg.Rewrite.Encoding)
	assert.Equal(t, 1024, cfg.Rewrite.SniffBytes)
	assert.Equal(t, "decode", cfg.Rewrite.Classifier)
	assert.Equal(t, "BUILD_REFERENCE.md", cfg.Docs.Output)
	assert.Equal(t, "FILE_MAPPING", cfg.Docs.Variable)
	assert.Equal(t, "suffix", cfg.Generate.Strategy)
	assert.Equal(t, "path", cfg.Generate.Keys)
	assert.Equal(t, []string{"**/*.css", "**/*.js"}, cfg.Generate.Patterns)
	assert.False(t, cfg.Precompress.Enabled)
	assert.Equal(t, 11, cfg.Precompress.Quality)
	assert.Empty(t, cfg.ConfigFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := `target_root: public
order: as-given
mapping:
  - old: styles/index.css
    new: styles/indexxa.css
rewrite:
  encoding: windows-1252
  exclude: ["vendor/**"]
  use_gitignore: true
generate:
  strategy: suffix
  rules:
    - ext: .css
      marker: v2
precompress:
  enabled: true
  extensions: [".css"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cachebust.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.TargetRoot)
	assert.Equal(t, "as-given", cfg.Order)
	assert.Equal(t, []mapping.Pair{{Old: "styles/index.css", New: "styles/indexxa.css"}}, cfg.Mapping)
	assert.Equal(t, "windows-1252", cfg.Rewrite.Encoding)
	assert.Equal(t, []string{"vendor/**"}, cfg.Rewrite.Exclude)
	assert.True(t, cfg.Rewrite.UseGitignore)
	assert.Equal(t, []mapping.SuffixRule{{Ext: ".css", Marker: "v2"}}, cfg.Generate.Rules)
	assert.True(t, cfg.Precompress.Enabled)
	assert.Equal(t, []string{".css"}, cfg.Precompress.Extensions)
	assert.Equal(t, "cachebust.yaml", filepath.Base(cfg.ConfigFile))
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, t.TempDir())
	path := filepath.Join(dir, "build.toml")
	require.NoError(t, os.WriteFile(path, []byte("target_root = \"dist\"\n\n[rewrite]\nsniff_bytes = 0\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.TargetRoot)
	assert.Equal(t, 0, cfg.Rewrite.SniffBytes)

	_, err = LoadConfig(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cachebust.yaml"), []byte("order: [unclosed"), 0o644))

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CACHEBUST_TARGET_ROOT", "site")
	t.Setenv("CACHEBUST_REWRITE_ENCODING", "iso-8859-1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.TargetRoot)
	assert.Equal(t, "iso-8859-1", cfg.Rewrite.Encoding)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TargetRoot: ".",
			Order:      "longest-first",
			Rewrite:    RewriteConfig{Encoding: "utf-8", Classifier: "decode", SniffBytes: 1024},
			Generate:   GenerateConfig{Strategy: "suffix"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"empty root":     func(c *Config) { c.TargetRoot = " " },
		"bad order":      func(c *Config) { c.Order = "random" },
		"bad encoding":   func(c *Config) { c.Rewrite.Encoding = "klingon" },
		"bad classifier": func(c *Config) { c.Rewrite.Classifier = "magic" },
		"negative sniff": func(c *Config) { c.Rewrite.SniffBytes = -1 },
		"bad strategy":   func(c *Config) { c.Generate.Strategy = "random" },
		"bad keys":       func(c *Config) { c.Generate.Keys = "basename" },
		"bad quality":    func(c *Config) { c.Precompress.Quality = 12 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestMappingPairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"entries":[{"old":"a.css","new":"axa.css"}]}`), 0o644))

	cfg := &Config{
		MappingFile: path,
		Mapping:     []mapping.Pair{{Old: "b.js", New: "bxjs.js"}},
	}
	pairs, err := cfg.MappingPairs()
	require.NoError(t, err)
	assert.Equal(t, []mapping.Pair{{Old: "a.css", New: "axa.css"}, {Old: "b.js", New: "bxjs.js"}}, pairs)

	cfg.MappingFile = filepath.Join(dir, "absent.json")
	_, err = cfg.MappingPairs()
	assert.Error(t, err)
}
