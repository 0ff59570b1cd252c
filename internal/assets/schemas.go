package assets

import (
	"encoding/json"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaInfo holds schema metadata.
type SchemaInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Draft string `json:"draft"`
}

// knownSchemas maps schema names to paths relative to embedded_schemas.
var knownSchemas = map[string]string{
	"mapping-v1.0.0": "mapping/mapping-v1.0.0.yaml",
}

// GetSchema returns the embedded schema bytes by relative path (e.g., "mapping/mapping-v1.0.0.yaml").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := fs.ReadFile(GetSchemasFS(), relPath)
	return data, err == nil
}

// GetSchemaNames returns the available schemas sorted by name.
func GetSchemaNames() []SchemaInfo {
	var infos []SchemaInfo
	for name, path := range knownSchemas {
		if _, ok := GetSchema(path); ok {
			infos = append(infos, SchemaInfo{Name: name, Path: path, Draft: detectDraft(path)})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// detectDraft heuristically detects draft from schema bytes via $schema key.
func detectDraft(path string) string {
	raw, ok := GetSchema(path)
	if !ok {
		return "unknown"
	}
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return "unknown"
		}
	}
	if m, ok := doc.(map[string]interface{}); ok {
		if v, ok := m["$schema"].(string); ok {
			if strings.Contains(v, "draft-07") {
				return "draft-07"
			}
			if strings.Contains(v, "2020-12") {
				return "draft-2020-12"
			}
		}
	}
	return "unknown"
}
