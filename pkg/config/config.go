package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/cachebust/pkg/docgen"
	"github.com/fulmenhq/cachebust/pkg/mapping"
	"github.com/fulmenhq/cachebust/pkg/precompress"
	"github.com/fulmenhq/cachebust/pkg/rewrite"
	"github.com/fulmenhq/cachebust/pkg/textenc"
	"github.com/spf13/viper"
)

// FileName is the config file searched for in the working directory, any
// extension viper understands.
const FileName = "cachebust"

// EnvPrefix prefixes environment overrides: CACHEBUST_TARGET_ROOT,
// CACHEBUST_REWRITE_ENCODING and so on.
const EnvPrefix = "CACHEBUST"

// Config holds all configuration for cachebust
type Config struct {
	TargetRoot  string            `mapstructure:"target_root"`
	MappingFile string            `mapstructure:"mapping_file"`
	Mapping     []mapping.Pair    `mapstructure:"mapping"`
	Order       string            `mapstructure:"order"`
	Rewrite     RewriteConfig     `mapstructure:"rewrite"`
	Report      ReportConfig      `mapstructure:"report"`
	Docs        DocsConfig        `mapstructure:"docs"`
	Generate    GenerateConfig    `mapstructure:"generate"`
	Precompress PrecompressConfig `mapstructure:"precompress"`

	// ConfigFile is the file the values were read from, empty for none.
	ConfigFile string `mapstructure:"-"`
}

// RewriteConfig controls reference rewriting
type RewriteConfig struct {
	Encoding     string   `mapstructure:"encoding"`
	SniffBytes   int      `mapstructure:"sniff_bytes"`
	Classifier   string   `mapstructure:"classifier"` // "decode", "strict"
	Include      []string `mapstructure:"include"`
	Exclude      []string `mapstructure:"exclude"`
	UseGitignore bool     `mapstructure:"use_gitignore"`
}

// ReportConfig controls the JSON run report
type ReportConfig struct {
	Output string `mapstructure:"output"`
}

// DocsConfig controls build reference generation
type DocsConfig struct {
	Output         string `mapstructure:"output"`
	ObfuscationMap string `mapstructure:"obfuscation_map"`
	Script         string `mapstructure:"script"`
	Variable       string `mapstructure:"variable"`
	Title          string `mapstructure:"title"`
}

// GenerateConfig controls mapping generation
type GenerateConfig struct {
	Strategy   string               `mapstructure:"strategy"` // "suffix", "hash"
	Patterns   []string             `mapstructure:"patterns"`
	HashLength int                  `mapstructure:"hash_length"`
	Keys       string               `mapstructure:"keys"` // "path", "name", "both"
	Rules      []mapping.SuffixRule `mapstructure:"rules"`
}

// PrecompressConfig controls .br sibling generation
type PrecompressConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Extensions []string `mapstructure:"extensions"`
	Quality    int      `mapstructure:"quality"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target_root", ".")
	v.SetDefault("mapping_file", "")
	v.SetDefault("order", string(mapping.OrderLongestFirst))

	v.SetDefault("rewrite.encoding", textenc.DefaultEncoding)
	v.SetDefault("rewrite.sniff_bytes", rewrite.DefaultSniffBytes)
	v.SetDefault("rewrite.classifier", textenc.ModeDecode)
	v.SetDefault("rewrite.include", []string{})
	v.SetDefault("rewrite.exclude", []string{})
	v.SetDefault("rewrite.use_gitignore", false)

	v.SetDefault("report.output", "")

	v.SetDefault("docs.output", "BUILD_REFERENCE.md")
	v.SetDefault("docs.obfuscation_map", "FINAL_obfuscation_mapping.json")
	v.SetDefault("docs.script", "")
	v.SetDefault("docs.variable", "FILE_MAPPING")
	v.SetDefault("docs.title", docgen.DefaultTitle)

	v.SetDefault("generate.strategy", "suffix")
	v.SetDefault("generate.patterns", mapping.DefaultGeneratePatterns)
	v.SetDefault("generate.hash_length", mapping.DefaultHashLength)
	v.SetDefault("generate.keys", string(mapping.KeysPath))

	v.SetDefault("precompress.enabled", false)
	v.SetDefault("precompress.extensions", precompress.DefaultExtensions)
	v.SetDefault("precompress.quality", 11)
}

// LoadConfig reads defaults, then the config file, then CACHEBUST_*
// environment variables. An empty path searches the working directory for
// cachebust.{yaml,yml,json,toml}; a missing file there is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return &cfg, nil
}

// Validate checks values that would otherwise fail halfway through a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TargetRoot) == "" {
		return errors.New("target_root must not be empty")
	}
	if _, err := mapping.ParseOrder(c.Order); err != nil {
		return err
	}
	if _, err := textenc.Lookup(c.Rewrite.Encoding); err != nil {
		return fmt.Errorf("rewrite.encoding: %w", err)
	}
	switch c.Rewrite.Classifier {
	case "", textenc.ModeDecode, textenc.ModeStrict:
	default:
		return fmt.Errorf("rewrite.classifier: unknown mode %q (want %s or %s)",
			c.Rewrite.Classifier, textenc.ModeDecode, textenc.ModeStrict)
	}
	if c.Rewrite.SniffBytes < 0 {
		return fmt.Errorf("rewrite.sniff_bytes must be >= 0, got %d", c.Rewrite.SniffBytes)
	}
	if _, err := mapping.StrategyByName(c.Generate.Strategy, c.Generate.Rules, c.Generate.HashLength); err != nil {
		return fmt.Errorf("generate.strategy: %w", err)
	}
	if _, err := mapping.ParseKeyStyle(c.Generate.Keys); err != nil {
		return fmt.Errorf("generate.keys: %w", err)
	}
	if c.Precompress.Quality < 0 || c.Precompress.Quality > 11 {
		return fmt.Errorf("precompress.quality must be 0-11, got %d", c.Precompress.Quality)
	}
	return nil
}

// MappingPairs returns the configured table: entries from mapping_file
// first, then the inline mapping list. Validation happens in mapping.Build.
func (c *Config) MappingPairs() ([]mapping.Pair, error) {
	var pairs []mapping.Pair
	if c.MappingFile != "" {
		loaded, err := mapping.LoadFile(c.MappingFile)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, loaded...)
	}
	return append(pairs, c.Mapping...), nil
}
