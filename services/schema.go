package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"rightmove-scraper/models"
)

// FieldType is the semantic type a record field is coerced to.
type FieldType string

const (
	FieldInteger FieldType = "integer"
	FieldText    FieldType = "text"
	FieldDate    FieldType = "date"
)

// Schema maps every record field name to its declared type.
type Schema map[string]FieldType

// schemaFile mirrors the layout of dtypes.yaml.
type schemaFile struct {
	RMDtypes map[string]string `yaml:"rm_dtypes"`
}

// LoadSchema reads the declared field-type schema from a YAML file and
// checks that it covers every record field.
func LoadSchema(path string) (Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}

	schema := make(Schema, len(file.RMDtypes))
	for name, typ := range file.RMDtypes {
		switch FieldType(typ) {
		case FieldInteger, FieldText, FieldDate:
			schema[name] = FieldType(typ)
		default:
			return nil, fmt.Errorf("schema: field %q has unknown type %q", name, typ)
		}
	}

	if err := schema.validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// validate checks the schema covers the full record shape.
func (s Schema) validate() error {
	for _, name := range models.FieldNames {
		if _, ok := s[name]; !ok {
			return fmt.Errorf("schema: missing field %q", name)
		}
	}
	return nil
}
