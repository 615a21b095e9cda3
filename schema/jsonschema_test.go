package schema_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/schema"
)

func TestFromJSONSchemaPrimitives(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input *jsonschema.Schema
		want  string
	}{
		"boolean": {
			input: &jsonschema.Schema{Type: "boolean"},
			want:  "bool",
		},
		"integer": {
			input: &jsonschema.Schema{Type: "integer"},
			want:  "i64",
		},
		"number": {
			input: &jsonschema.Schema{Type: "number"},
			want:  "f64",
		},
		"string": {
			input: &jsonschema.Schema{Type: "string"},
			want:  "string",
		},
		"array of integers": {
			input: &jsonschema.Schema{
				Type:  "array",
				Items: &jsonschema.Schema{Type: "integer"},
			},
			want: "seq<i64>",
		},
		"array without items": {
			input: &jsonschema.Schema{Type: "array"},
			want:  "seq<string>",
		},
		"nullable type list": {
			input: &jsonschema.Schema{Types: []string{"integer", "null"}},
			want:  "option<i64>",
		},
		"additional properties map": {
			input: &jsonschema.Schema{
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "number"},
			},
			want: "map<string,f64>",
		},
		"untyped object": {
			input: &jsonschema.Schema{Type: "object"},
			want:  "map<string,string>",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := schema.FromJSONSchema(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.String())
		})
	}
}

func TestFromJSONSchemaObject(t *testing.T) {
	t.Parallel()

	js := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":  {Type: "string"},
			"age":   {Type: "integer"},
			"email": {Type: "string"},
		},
		PropertyOrder: []string{"name", "age", "email"},
		Required:      []string{"name", "age"},
	}

	s, err := schema.FromJSONSchema(js)
	require.NoError(t, err)
	require.Equal(t, schema.KindStruct, s.Kind)
	require.Len(t, s.Fields, 3)

	assert.Equal(t, "name", s.Fields[0].Name)
	assert.True(t, s.Fields[0].Required)
	assert.Equal(t, "age", s.Fields[1].Name)
	assert.Equal(t, schema.KindI64, s.Fields[1].Schema.Kind)
	assert.False(t, s.Fields[2].Required)
}

func TestFromJSONSchemaObjectWithoutOrder(t *testing.T) {
	t.Parallel()

	js := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"b": {Type: "string"},
			"a": {Type: "string"},
		},
	}

	s, err := schema.FromJSONSchema(js)
	require.NoError(t, err)

	// No declared order: fields fall back to sorted order for stability.
	assert.Equal(t, "a", s.Fields[0].Name)
	assert.Equal(t, "b", s.Fields[1].Name)
}

func TestFromJSONSchemaEnum(t *testing.T) {
	t.Parallel()

	js := &jsonschema.Schema{
		Title: "Status",
		Enum:  []any{"Enabled", "Disabled"},
	}

	s, err := schema.FromJSONSchema(js)
	require.NoError(t, err)
	require.Equal(t, schema.KindEnum, s.Kind)
	assert.False(t, s.Union)
	require.Len(t, s.Variants, 2)
	assert.Equal(t, "Enabled", s.Variants[0].Name)

	_, err = schema.FromJSONSchema(&jsonschema.Schema{Enum: []any{1, 2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrUnsupportedType)
}

func TestFromJSONSchemaUnion(t *testing.T) {
	t.Parallel()

	js := &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Title: "Number", Type: "integer"},
			{Type: "string"},
		},
	}

	s, err := schema.FromJSONSchema(js)
	require.NoError(t, err)
	require.Equal(t, schema.KindEnum, s.Kind)
	assert.True(t, s.Union)
	require.Len(t, s.Variants, 2)
	assert.Equal(t, "Number", s.Variants[0].Name)
	assert.Equal(t, "string", s.Variants[1].Name)
	assert.Equal(t, schema.VariantNewtype, s.Variants[0].Kind)
}

func TestFromJSONSchemaRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := schema.FromJSONSchema(&jsonschema.Schema{Type: "widget"})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrUnsupportedType)

	_, err = schema.FromJSONSchema(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)
}
