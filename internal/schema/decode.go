package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type rawField struct {
	Pos         []int       `yaml:"pos"`
	Picture     string      `yaml:"picture"`
	Default     *yaml.Node  `yaml:"default"`
	DateFormat  string      `yaml:"date_format"`
	Required    bool        `yaml:"required"`
	ValidValues []yaml.Node `yaml:"valid_values"`
}

// Decode reads a schema document (YAML or JSON) into fields in declared
// order. Metadata keys and fields without a well-formed position pair and
// picture are skipped; ErrMalformed is returned when none remain.
func Decode(data []byte) ([]Field, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrMalformed)
	}

	root := doc.Content[0]
	var fields []Field
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if IsMetadataKey(name) {
			continue
		}
		f, ok := decodeField(name, root.Content[i+1])
		if !ok {
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no field with a position pair and picture", ErrMalformed)
	}
	return fields, nil
}

func decodeField(name string, node *yaml.Node) (Field, bool) {
	if node.Kind != yaml.MappingNode {
		return Field{}, false
	}
	var raw rawField
	if err := node.Decode(&raw); err != nil {
		return Field{}, false
	}
	if len(raw.Pos) != 2 || raw.Pos[0] < 1 || raw.Pos[1] < raw.Pos[0] || raw.Picture == "" {
		return Field{}, false
	}

	f := Field{
		Name:       name,
		Pos:        [2]int{raw.Pos[0], raw.Pos[1]},
		Picture:    raw.Picture,
		DateFormat: raw.DateFormat,
		Required:   raw.Required,
	}
	if raw.Default != nil && raw.Default.Kind == yaml.ScalarNode && raw.Default.Tag != "!!null" {
		def := raw.Default.Value
		f.Default = &def
	}
	for _, v := range raw.ValidValues {
		if v.Kind == yaml.ScalarNode {
			f.ValidValues = append(f.ValidValues, v.Value)
		}
	}
	return f, true
}
