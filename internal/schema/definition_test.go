package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	def := Default()

	assert.Equal(t, SupportedVersion, def.Version)
	assert.False(t, def.AdditionalFields)

	position := def.Field("position")
	require.NotNil(t, position)
	assert.Equal(t, TypeInteger, position.Type)
	assert.Equal(t, []string{"guide", "order"}, position.Aliases)

	status := def.Field("status")
	require.NotNil(t, status)
	assert.Equal(t, []string{"active", "deceased", "incarcerated", "captured", "redacted"}, status.Enum)

	name := def.Field("name")
	require.NotNil(t, name)
	require.NotNil(t, name.OptionalWhen)
	assert.Equal(t, Condition{Field: "status", Equals: "redacted"}, *name.OptionalWhen)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "wrong version",
			yaml:    "version: 2\nfields: [{name: position, type: integer}]",
			wantErr: "unsupported schema version: 2",
		},
		{
			name:    "no fields",
			yaml:    "version: 1",
			wantErr: "no fields defined",
		},
		{
			name:    "unknown type",
			yaml:    "version: 1\nfields: [{name: position, type: decimal}]",
			wantErr: "unknown type: decimal",
		},
		{
			name: "alias clash",
			yaml: `version: 1
fields:
  - {name: position, type: integer, aliases: [order]}
  - {name: order, type: string}`,
			wantErr: "declared by both",
		},
		{
			name: "dangling condition",
			yaml: `version: 1
fields:
  - {name: position, type: integer}
  - {name: name, type: string, optional_when: {field: state, equals: x}}
  - {name: status, type: string}`,
			wantErr: "optional_when references unknown field 'state'",
		},
		{
			name: "missing status field",
			yaml: `version: 1
fields:
  - {name: position, type: integer}
  - {name: name, type: string}`,
			wantErr: "missing required field definition 'status'",
		},
		{
			name: "enum on integer",
			yaml: `version: 1
fields:
  - {name: position, type: integer, enum: ["1"]}`,
			wantErr: "enum and non_empty only apply to string fields",
		},
		{
			name: "unknown status in enum",
			yaml: `version: 1
fields:
  - {name: position, type: integer}
  - {name: name, type: string}
  - {name: status, type: string, enum: [active, redacted, missing]}`,
			wantErr: "enum value 'missing' is not a known status",
		},
		{
			name: "status enum differing only by case",
			yaml: `version: 1
fields:
  - {name: position, type: integer}
  - {name: name, type: string}
  - {name: status, type: string, enum: [active, Redacted]}`,
			wantErr: "enum value 'Redacted' is not a known status",
		},
		{
			name:    "malformed yaml",
			yaml:    "version: [",
			wantErr: "failed to parse schema definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("round trips the default definition", func(t *testing.T) {
		data, err := Default().Marshal()
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "schema.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		def, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), def)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read schema definition")
	})

	t.Run("empty path uses embedded definition", func(t *testing.T) {
		def, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, Default(), def)
	})
}

func TestCustomDefinitionTightensRules(t *testing.T) {
	def, err := Parse([]byte(`version: 1
additional_fields: true
fields:
  - {name: position, type: integer, required: true}
  - {name: name, type: string, required: true, non_empty: true}
  - {name: status, type: string, required: true, enum: [active]}
`))
	require.NoError(t, err)

	got := def.ValidateEntry(map[string]any{"position": 1, "status": "redacted", "note": "x"})
	assert.Equal(t, []Violation{
		{Path: "/name", Message: "is required"},
		{Path: "/status", Message: `must be one of active, got "redacted"`},
	}, got)
}
