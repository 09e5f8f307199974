// Package schema loads the persisted entry schema definition and validates
// candidate entries and whole collections against it.
package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dyluth/roster/pkg/roster"
)

//go:embed entry.v1.yaml
var defaultDefinition []byte

// SupportedVersion is the only schema definition version this build understands.
const SupportedVersion = 1

// FieldType is the JSON type a field value must have.
type FieldType string

const (
	// TypeInteger accepts whole numbers within the safe integer range
	TypeInteger FieldType = "integer"

	// TypeString accepts JSON strings
	TypeString FieldType = "string"
)

// Definition is the versioned description of the entry shape.
type Definition struct {
	Version          int     `yaml:"version"`
	AdditionalFields bool    `yaml:"additional_fields"`
	Fields           []Field `yaml:"fields"`
}

// Field describes one entry field.
type Field struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`
	NonEmpty bool      `yaml:"non_empty,omitempty"`
	Aliases  []string  `yaml:"aliases,omitempty"`
	Enum     []string  `yaml:"enum,omitempty"`

	// OptionalWhen lifts Required and NonEmpty when the condition holds.
	OptionalWhen *Condition `yaml:"optional_when,omitempty"`
}

// Condition matches when another field holds an exact string value.
type Condition struct {
	Field  string `yaml:"field"`
	Equals string `yaml:"equals"`
}

// Default returns the schema definition compiled into the binary.
func Default() *Definition {
	def, err := Parse(defaultDefinition)
	if err != nil {
		panic(fmt.Sprintf("embedded schema definition is invalid: %v", err))
	}
	return def
}

// Load reads and validates a schema definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema definition: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema definition %s: %w", path, err)
	}
	return def, nil
}

// LoadOrDefault loads path, or returns the embedded definition when path is empty.
func LoadOrDefault(path string) (*Definition, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes and validates a YAML schema definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse schema definition: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate performs strict validation on the definition itself.
func (d *Definition) Validate() error {
	if d.Version != SupportedVersion {
		return fmt.Errorf("unsupported schema version: %d (expected: %d)", d.Version, SupportedVersion)
	}

	if len(d.Fields) == 0 {
		return fmt.Errorf("no fields defined")
	}

	// Every name and alias must resolve to exactly one field.
	names := make(map[string]string)
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name is required")
		}
		for _, n := range append([]string{f.Name}, f.Aliases...) {
			if owner, exists := names[n]; exists {
				return fmt.Errorf("field name '%s' declared by both '%s' and '%s'", n, owner, f.Name)
			}
			names[n] = f.Name
		}

		switch f.Type {
		case TypeInteger:
			if len(f.Enum) > 0 || f.NonEmpty {
				return fmt.Errorf("field '%s': enum and non_empty only apply to string fields", f.Name)
			}
		case TypeString:
		default:
			return fmt.Errorf("field '%s': unknown type: %s (must be 'integer' or 'string')", f.Name, f.Type)
		}
	}

	for _, f := range d.Fields {
		if f.OptionalWhen == nil {
			continue
		}
		target := d.Field(f.OptionalWhen.Field)
		if target == nil {
			return fmt.Errorf("field '%s': optional_when references unknown field '%s'", f.Name, f.OptionalWhen.Field)
		}
		if target.Type != TypeString {
			return fmt.Errorf("field '%s': optional_when field '%s' must be a string field", f.Name, target.Name)
		}
	}

	// The entry shape is fixed; a definition may constrain it further but not drop it.
	for _, required := range []struct {
		name string
		typ  FieldType
	}{{"position", TypeInteger}, {"name", TypeString}, {"status", TypeString}} {
		f := d.Field(required.name)
		if f == nil {
			return fmt.Errorf("missing required field definition '%s'", required.name)
		}
		if f.Type != required.typ {
			return fmt.Errorf("field '%s' must have type %s", required.name, required.typ)
		}
	}

	// A status enum may narrow the known statuses but never add to them.
	for _, v := range d.Field("status").Enum {
		if roster.Status(v).Validate() != nil {
			return fmt.Errorf("field 'status': enum value '%s' is not a known status", v)
		}
	}

	return nil
}

// Field returns the field with the given canonical name, or nil.
func (d *Definition) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Marshal renders the definition as YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// DefaultSource returns the YAML source of the embedded definition, for
// writing out as a starting point for a custom schema.
func DefaultSource() []byte {
	return append([]byte(nil), defaultDefinition...)
}
