package services

import (
	"os"
	"path/filepath"
	"testing"
)

const validSchemaYAML = `rm_dtypes:
  id: integer
  address: text
  outcode: text
  postcode: text
  price: integer
  price_qualifier: text
  listing_type: text
  listed_date: date
  property_type: text
  bedrooms: integer
  bathrooms: integer
  size_sqft: integer
  tenure: text
  agent_name: text
  agent_name_full: text
  agent_address: text
  description: text
`

func writeSchemaFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dtypes.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write schema file: %v", err)
	}
	return path
}

func TestLoadSchema(t *testing.T) {
	schema, err := LoadSchema(writeSchemaFile(t, validSchemaYAML))
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}

	if schema["price"] != FieldInteger {
		t.Errorf("price type = %q; want integer", schema["price"])
	}
	if schema["listed_date"] != FieldDate {
		t.Errorf("listed_date type = %q; want date", schema["listed_date"])
	}
}

func TestLoadSchemaRejectsUnknownType(t *testing.T) {
	yaml := "rm_dtypes:\n  id: bignum\n"
	if _, err := LoadSchema(writeSchemaFile(t, yaml)); err == nil {
		t.Fatal("expected error for unknown field type")
	}
}

func TestLoadSchemaRejectsIncompleteSchema(t *testing.T) {
	yaml := "rm_dtypes:\n  id: integer\n  price: integer\n"
	if _, err := LoadSchema(writeSchemaFile(t, yaml)); err == nil {
		t.Fatal("expected error for schema missing fields")
	}
}

func TestLoadSchemaMissingFile(t *testing.T) {
	if _, err := LoadSchema(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
