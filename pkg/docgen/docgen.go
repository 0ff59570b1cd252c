// Package docgen renders the build reference: a Markdown document that maps
// production file names and minified DOM identifiers back to their sources.
package docgen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/cachebust/internal/assets"
	"github.com/fulmenhq/cachebust/pkg/mapping"
)

// TemplatePath is the embedded template, relative to the templates root.
const TemplatePath = "docs/build-reference.md.hbs"

// DefaultTitle heads the generated document.
const DefaultTitle = "Production Build Reference"

// Class kinds reported in the DOM table.
const (
	KindID    = "ID"
	KindClass = "Class"
)

// Options configures rendering.
type Options struct {
	Title string
	// Generated is stamped into the document; zero means now.
	Generated time.Time
}

// ClassRow is one DOM table row.
type ClassRow struct {
	Code string
	Name string
	Kind string
}

// ClassKind guesses whether a DOM name is an ID or a class. Layout wrappers
// and containers are IDs in the site's markup.
func ClassKind(name string) string {
	if strings.Contains(name, "wrapper") || strings.Contains(name, "container") {
		return KindID
	}
	return KindClass
}

// ClassRows turns an original→code obfuscation map into rows sorted by code.
// Codes shared by several names keep one row per name.
func ClassRows(classes map[string]string) []ClassRow {
	rows := make([]ClassRow, 0, len(classes))
	for name, code := range classes {
		rows = append(rows, ClassRow{Code: code, Name: name, Kind: ClassKind(name)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// LoadObfuscationMap reads a JSON object of original name to minified code.
func LoadObfuscationMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- user-selected map
	if err != nil {
		return nil, fmt.Errorf("read obfuscation map: %w", err)
	}
	var classes map[string]string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("parse obfuscation map %s: %w", path, err)
	}
	return classes, nil
}

// Render writes the build reference for a file mapping and an obfuscation
// map. Either may be empty.
func Render(w io.Writer, files *mapping.Mapping, classes map[string]string, opts Options) error {
	source, ok := assets.GetTemplate(TemplatePath)
	if !ok {
		return fmt.Errorf("embedded template %s not found", TemplatePath)
	}

	out, err := raymond.Render(string(source), context(files, classes, opts))
	if err != nil {
		return fmt.Errorf("render build reference: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteFile renders the build reference to path.
func WriteFile(path string, files *mapping.Mapping, classes map[string]string, opts Options) error {
	var b strings.Builder
	if err := Render(&b, files, classes, opts); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644) // #nosec G306 -- documentation output
}

func context(files *mapping.Mapping, classes map[string]string, opts Options) map[string]interface{} {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	generated := opts.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	fileRows := []map[string]string{}
	for _, p := range files.SortedByOld() {
		fileRows = append(fileRows, map[string]string{"old": p.Old, "new": p.New})
	}
	classRows := []map[string]string{}
	for _, r := range ClassRows(classes) {
		classRows = append(classRows, map[string]string{"code": r.Code, "name": r.Name, "kind": r.Kind})
	}

	ctx := map[string]interface{}{
		"title":      title,
		"generated":  generated.Format("2006-01-02 15:04:05"),
		"files":      fileRows,
		"classes":    classRows,
		"exampleOld": "styles/index.css",
		"exampleNew": "styles/b1c...css",
	}
	if len(fileRows) > 0 {
		ctx["exampleOld"] = fileRows[0]["old"]
		ctx["exampleNew"] = fileRows[0]["new"]
	}
	if len(classRows) > 0 {
		ctx["exampleCode"] = classRows[0]["code"]
		ctx["exampleName"] = classRows[0]["name"]
	}
	return ctx
}
