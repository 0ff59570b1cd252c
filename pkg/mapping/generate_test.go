package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/cachebust/pkg/ignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func noContent() ([]byte, error) { return nil, nil }

func TestSuffixStrategy(t *testing.T) {
	s := SuffixStrategy{}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"index.css", "indexxa.css", true},
		{"app.js", "appxjs.js", true},
		{"indexxa.css", "", false},
		{"appxjs.js", "", false},
		{"logo.png", "", false},
	}
	for _, tt := range tests {
		got, ok, err := s.Rename(tt.in, noContent)
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	custom := SuffixStrategy{Rules: []SuffixRule{{Ext: ".svg", Marker: "-v2"}}}
	got, ok, _ := custom.Rename("logo.svg", noContent)
	assert.True(t, ok)
	assert.Equal(t, "logo-v2.svg", got)
}

func TestHashStrategy(t *testing.T) {
	content := []byte("body{}")
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])[:8]

	s := HashStrategy{Length: 8}
	got, ok, err := s.Rename("index.css", func() ([]byte, error) { return content, nil })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "index."+digest+".css", got)

	_, ok, err = s.Rename(got, func() ([]byte, error) {
		t.Fatal("hashed names should not be read")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, DefaultHashLength, HashStrategy{}.length())
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "suffix", s.Name())

	s, err = StrategyByName("HASH", nil, 12)
	require.NoError(t, err)
	assert.Equal(t, HashStrategy{Length: 12}, s)

	_, err = StrategyByName("random", nil, 0)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":         "<link href=styles/index.css>",
		"styles/index.css":   "body{}",
		"styles/oldxa.css":   "p{}",
		"src/app.js":         "x()",
		"vendor/lib.js":      "y()",
		"images/logo.png":    "png",
		".git/hooks/pre.js":  "z()",
		".cachebustignore":   "vendor/\n",
		"src/nested/deep.js": "w()",
	})

	matcher, err := ignore.NewMatcher(root, ignore.Options{})
	require.NoError(t, err)

	m, issues, err := Generate(root, GenerateOptions{Matcher: matcher})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, []Pair{
		{Old: "src/app.js", New: "src/appxjs.js"},
		{Old: "src/nested/deep.js", New: "src/nested/deepxjs.js"},
		{Old: "styles/index.css", New: "styles/indexxa.css"},
	}, m.Pairs())
}

func TestGeneratePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.css":     "",
		"sub/b.css": "",
	})

	m, _, err := Generate(root, GenerateOptions{Patterns: []string{"*.css"}})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Old: "a.css", New: "axa.css"}}, m.Pairs())

	_, _, err = Generate(root, GenerateOptions{Patterns: []string{"[broken"}})
	assert.Error(t, err)
}

func TestGenerateMissingRoot(t *testing.T) {
	_, _, err := Generate(filepath.Join(t.TempDir(), "absent"), GenerateOptions{})
	assert.Error(t, err)
}

func TestGenerateKeyStyles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.css":         "",
		"styles/index.css": "",
		"about/index.css":  "",
		"src/core/app.js":  "",
	})

	tests := []struct {
		keys KeyStyle
		want []Pair
	}{
		{KeysPath, []Pair{
			{"about/index.css", "about/indexxa.css"},
			{"main.css", "mainxa.css"},
			{"src/core/app.js", "src/core/appxjs.js"},
			{"styles/index.css", "styles/indexxa.css"},
		}},
		{KeysName, []Pair{
			{"index.css", "indexxa.css"},
			{"main.css", "mainxa.css"},
			{"app.js", "appxjs.js"},
		}},
		{KeysBoth, []Pair{
			{"about/index.css", "about/indexxa.css"},
			{"main.css", "mainxa.css"},
			{"src/core/app.js", "src/core/appxjs.js"},
			{"styles/index.css", "styles/indexxa.css"},
			{"index.css", "indexxa.css"},
			{"app.js", "appxjs.js"},
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.keys), func(t *testing.T) {
			m, issues, err := Generate(root, GenerateOptions{Keys: tt.keys})
			require.NoError(t, err)
			assert.Empty(t, issues)
			assert.Equal(t, tt.want, m.Pairs())
		})
	}
}

func TestGenerateNameKeysConflict(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/index.css": "one",
		"b/index.css": "two",
	})

	m, issues, err := Generate(root, GenerateOptions{Strategy: HashStrategy{Length: 6}, Keys: KeysName})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonDuplicate, issues[0].Reason)
	assert.Equal(t, 1, m.Len())
}

func TestParseKeyStyle(t *testing.T) {
	k, err := ParseKeyStyle("")
	require.NoError(t, err)
	assert.Equal(t, KeysPath, k)

	k, err = ParseKeyStyle(" Both ")
	require.NoError(t, err)
	assert.Equal(t, KeysBoth, k)

	_, err = ParseKeyStyle("basename")
	assert.Error(t, err)

	_, _, err = Generate(t.TempDir(), GenerateOptions{Keys: "basename"})
	assert.Error(t, err)
}
