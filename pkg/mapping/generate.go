package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/cachebust/pkg/ignore"
)

// Strategy proposes cache-busting names for asset files.
type Strategy interface {
	Name() string
	// Rename returns the new base name for a file, or ok=false to leave it
	// alone. content loads the file lazily.
	Rename(name string, content func() ([]byte, error)) (newName string, ok bool, err error)
}

// SuffixRule inserts Marker before Ext: with {".css", "xa"}, index.css
// becomes indexxa.css.
type SuffixRule struct {
	Ext    string `mapstructure:"ext" yaml:"ext" json:"ext"`
	Marker string `mapstructure:"marker" yaml:"marker" json:"marker"`
}

// DefaultSuffixRules are the markers used by the deployed site.
var DefaultSuffixRules = []SuffixRule{
	{Ext: ".css", Marker: "xa"},
	{Ext: ".js", Marker: "xjs"},
}

// SuffixStrategy renames by inserting a fixed marker before the extension.
// Names already carrying the marker are skipped, so re-runs are stable.
type SuffixStrategy struct {
	Rules []SuffixRule
}

func (s SuffixStrategy) Name() string { return "suffix" }

func (s SuffixStrategy) Rename(name string, _ func() ([]byte, error)) (string, bool, error) {
	rules := s.Rules
	if len(rules) == 0 {
		rules = DefaultSuffixRules
	}
	for _, r := range rules {
		if r.Ext == "" || !strings.HasSuffix(name, r.Ext) {
			continue
		}
		if strings.HasSuffix(name, r.Marker+r.Ext) {
			return "", false, nil
		}
		return strings.TrimSuffix(name, r.Ext) + r.Marker + r.Ext, true, nil
	}
	return "", false, nil
}

// DefaultHashLength is the number of hex digits HashStrategy keeps.
const DefaultHashLength = 10

// HashStrategy renames to <stem>.<sha256 prefix><ext>. Names whose stem
// already ends in a dot and Length hex digits are skipped.
type HashStrategy struct {
	Length int
}

func (s HashStrategy) Name() string { return "hash" }

func (s HashStrategy) length() int {
	if s.Length <= 0 || s.Length > sha256.Size*2 {
		return DefaultHashLength
	}
	return s.Length
}

func (s HashStrategy) Rename(name string, content func() ([]byte, error)) (string, bool, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if s.hashed(stem) {
		return "", false, nil
	}
	data, err := content()
	if err != nil {
		return "", false, err
	}
	sum := sha256.Sum256(data)
	return stem + "." + hex.EncodeToString(sum[:])[:s.length()] + ext, true, nil
}

func (s HashStrategy) hashed(stem string) bool {
	n := s.length()
	dot := strings.LastIndexByte(stem, '.')
	if dot < 0 || len(stem)-dot-1 != n {
		return false
	}
	for _, c := range stem[dot+1:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// StrategyByName builds a strategy from configuration values.
func StrategyByName(name string, rules []SuffixRule, hashLength int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "suffix":
		return SuffixStrategy{Rules: rules}, nil
	case "hash":
		return HashStrategy{Length: hashLength}, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy %q (want suffix or hash)", name)
	}
}

// DefaultGeneratePatterns select the assets renamed when none are configured.
var DefaultGeneratePatterns = []string{"**/*.css", "**/*.js"}

// KeyStyle selects which identifiers Generate emits for each renamed file.
type KeyStyle string

const (
	// KeysPath emits root-relative paths ("styles/index.css"). These rename
	// files and rewrite references spelled from the root.
	KeysPath KeyStyle = "path"
	// KeysName emits bare file names ("index.css"), which also catch
	// relative references such as href="index.css" or "../core/app.js".
	// Bare names only rename files at the top of the root.
	KeysName KeyStyle = "name"
	// KeysBoth emits the path pairs followed by the name pairs, so one run
	// renames every file and rewrites relative references too.
	KeysBoth KeyStyle = "both"
)

// ParseKeyStyle validates a key style name; empty means KeysPath.
func ParseKeyStyle(s string) (KeyStyle, error) {
	switch k := KeyStyle(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KeysPath, nil
	case KeysPath, KeysName, KeysBoth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown key style %q (want %s, %s or %s)", s, KeysPath, KeysName, KeysBoth)
	}
}

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Patterns []string
	Strategy Strategy
	Matcher  *ignore.Matcher
	Keys     KeyStyle
}

// Generate walks root and proposes a mapping for every file matching the
// patterns. Files keep their directory; opts.Keys picks the identifiers.
// Two files sharing a name but given different new names under KeysName or
// KeysBoth are reported as duplicates, the first one winning.
func Generate(root string, opts GenerateOptions) (*Mapping, []Issue, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("target root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("target root %s is not a directory", root)
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultGeneratePatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = SuffixStrategy{}
	}
	keys, err := ParseKeyStyle(string(opts.Keys))
	if err != nil {
		return nil, nil, err
	}

	var pathPairs, namePairs []Pair
	seenName := make(map[Pair]bool)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if opts.Matcher.IsIgnoredDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || opts.Matcher.IsIgnored(rel) || !matchesAny(patterns, rel) {
			return nil
		}

		newName, ok, err := strategy.Rename(d.Name(), func() ([]byte, error) {
			return os.ReadFile(p) // #nosec G304 -- walked path under root
		})
		if err != nil {
			return fmt.Errorf("name %s: %w", rel, err)
		}
		if !ok {
			return nil
		}
		pathPairs = append(pathPairs, Pair{Old: rel, New: path.Join(path.Dir(rel), newName)})
		byName := Pair{Old: d.Name(), New: newName}
		if !seenName[byName] && (keys == KeysName || byName.Old != rel) {
			seenName[byName] = true
			namePairs = append(namePairs, byName)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var pairs []Pair
	switch keys {
	case KeysPath:
		pairs = pathPairs
	case KeysName:
		pairs = namePairs
	case KeysBoth:
		pairs = append(pathPairs, namePairs...)
	}
	m, issues := Build(pairs)
	return m, issues, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
