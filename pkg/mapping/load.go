package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/cachebust/internal/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for mapping files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown mapping file format")

// DocumentVersion is the only mapping document version understood.
const DocumentVersion = 1

// Document is the on-disk mapping file shape.
type Document struct {
	Version int    `json:"version" yaml:"version" toml:"version"`
	Entries []Pair `json:"entries" yaml:"entries" toml:"entries"`
}

// Format identifies a mapping file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ValidationError lists schema violations found in a mapping document.
type ValidationError struct {
	Errors []schema.ValidationError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		parts = append(parts, v.String())
	}
	return "mapping document failed validation: " + strings.Join(parts, "; ")
}

// Parse decodes and schema-validates a mapping document. The returned pairs
// are unvalidated input for Build.
func Parse(data []byte, format Format) ([]Pair, error) {
	var generic interface{}
	if err := unmarshal(data, format, &generic); err != nil {
		return nil, err
	}
	if generic == nil {
		generic = map[string]interface{}{}
	}

	res, err := schema.Validate(generic, schema.MappingV1)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &ValidationError{Errors: res.Errors}
	}

	var doc Document
	if err := unmarshal(data, format, &doc); err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func unmarshal(data []byte, format Format, v interface{}) error {
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatJSON:
		err = json.Unmarshal(data, v)
	case FormatTOML:
		err = toml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("decode %s mapping: %w", format, err)
	}
	return nil
}

// LoadFile reads a mapping document, choosing the decoder by extension.
func LoadFile(path string) ([]Pair, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- user-selected mapping file
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	pairs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}

// Encode renders pairs as a mapping document.
func Encode(pairs []Pair, format Format) ([]byte, error) {
	doc := Document{Version: DocumentVersion, Entries: pairs}
	if doc.Entries == nil {
		doc.Entries = []Pair{}
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml mapping: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml mapping: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json mapping: %w", err)
		}
		return append(out, '\n'), nil
	case FormatTOML:
		out, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml mapping: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile encodes pairs in the format implied by path's extension.
func WriteFile(path string, pairs []Pair) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(pairs, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create mapping directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- mapping files are build artifacts
		return fmt.Errorf("write mapping file: %w", err)
	}
	return nil
}
