package schema

import (
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSON Schema type names understood by [FromJSONSchema].
const (
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeNumber  = "number"
	typeString  = "string"
	typeArray   = "array"
	typeObject  = "object"
	typeNull    = "null"
)

// FromJSONSchema builds a descriptor from a JSON Schema document, covering
// the subset the coercion engine can act on:
//
//   - boolean, integer, number, and string types map to primitives;
//   - a string enum maps to a unit-variant Enum;
//   - array maps to Seq of the items schema (a missing items schema means
//     seq<string>, the loosest element the engine can still fill);
//   - object with properties maps to Struct, fields ordered by
//     PropertyOrder when present, required per the required list;
//   - object without properties but with an additionalProperties schema
//     maps to Map of that schema;
//   - object typed "object" with neither properties nor an
//     additionalProperties schema maps to map<string,string>;
//   - oneOf and anyOf map to a Union of newtype variants;
//   - a two-element type list containing "null" maps to Option of the
//     other element.
//
// Anything else fails with [ErrUnsupportedType]. The conversion ignores
// validation-only keywords (bounds, patterns, formats): the engine coerces,
// it does not validate.
func FromJSONSchema(js *jsonschema.Schema) (*Schema, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}

	if variants := unionVariants(js); variants != nil {
		inner := make([]Variant, 0, len(variants))

		for i, v := range variants {
			vs, err := FromJSONSchema(v)
			if err != nil {
				return nil, fmt.Errorf("variant %d: %w", i, err)
			}

			inner = append(inner, Newtype(variantName(v, i), vs))
		}

		return Union(js.Title, inner...), nil
	}

	if len(js.Enum) > 0 {
		return enumFromConsts(js)
	}

	typ, optional := schemaType(js)
	if optional {
		elemCopy := *js
		elemCopy.Types = []string{typ}
		elemCopy.Type = ""

		inner, err := FromJSONSchema(&elemCopy)
		if err != nil {
			return nil, err
		}

		return Option(inner), nil
	}

	switch typ {
	case typeBoolean:
		return Bool(), nil
	case typeInteger:
		return I64(), nil
	case typeNumber:
		return F64(), nil
	case typeString:
		return String(), nil
	case typeArray:
		if js.Items == nil {
			return Seq(String()), nil
		}

		inner, err := FromJSONSchema(js.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}

		return Seq(inner), nil
	case typeObject, "":
		return objectSchema(js, typ)
	}

	return nil, fmt.Errorf("%w: json schema type %q", ErrUnsupportedType, typ)
}

func objectSchema(js *jsonschema.Schema, typ string) (*Schema, error) {
	if len(js.Properties) > 0 {
		s := &Schema{Kind: KindStruct, Name: js.Title}

		for _, name := range propertyOrder(js) {
			fs, err := FromJSONSchema(js.Properties[name])
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}

			s.Fields = append(s.Fields, Field{
				Name:     name,
				Schema:   fs,
				Required: slices.Contains(js.Required, name),
			})
		}

		return s, nil
	}

	if js.AdditionalProperties != nil {
		value, err := FromJSONSchema(js.AdditionalProperties)
		if err != nil {
			return nil, fmt.Errorf("additionalProperties: %w", err)
		}

		return Map(value), nil
	}

	if typ == typeObject {
		return Map(String()), nil
	}

	return nil, fmt.Errorf("%w: schema with no type, properties, or composition", ErrUnsupportedType)
}

func enumFromConsts(js *jsonschema.Schema) (*Schema, error) {
	variants := make([]Variant, 0, len(js.Enum))

	for i, c := range js.Enum {
		name, ok := c.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string enum constant at %d", ErrUnsupportedType, i)
		}

		variants = append(variants, Unit(name))
	}

	return Enum(js.Title, variants...), nil
}

// unionVariants returns the oneOf or anyOf arms, or nil when the schema is
// not a composition.
func unionVariants(js *jsonschema.Schema) []*jsonschema.Schema {
	if len(js.OneOf) > 0 {
		return js.OneOf
	}

	if len(js.AnyOf) > 0 {
		return js.AnyOf
	}

	return nil
}

func variantName(v *jsonschema.Schema, i int) string {
	if v.Title != "" {
		return v.Title
	}

	if t, _ := schemaType(v); t != "" {
		return t
	}

	return fmt.Sprintf("variant_%d", i)
}

// schemaType resolves Type/Types to a single type name. A two-element Types
// list containing "null" reports the other element with optional=true.
func schemaType(js *jsonschema.Schema) (typ string, optional bool) {
	if js.Type != "" {
		return js.Type, false
	}

	types := slices.Clone(js.Types)
	if i := slices.Index(types, typeNull); i >= 0 && len(types) == 2 {
		return types[1-i], true
	}

	if len(types) == 1 {
		return types[0], false
	}

	return "", false
}

// propertyOrder returns property names in source order when the document
// carries it, falling back to sorted order for a stable result.
func propertyOrder(js *jsonschema.Schema) []string {
	if len(js.PropertyOrder) > 0 {
		order := make([]string, 0, len(js.Properties))

		for _, name := range js.PropertyOrder {
			if _, ok := js.Properties[name]; ok {
				order = append(order, name)
			}
		}

		var rest []string

		for name := range js.Properties {
			if !slices.Contains(order, name) {
				rest = append(rest, name)
			}
		}

		slices.Sort(rest)

		return append(order, rest...)
	}

	names := make([]string, 0, len(js.Properties))
	for name := range js.Properties {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
