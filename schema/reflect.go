package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/microagents/tryparse/flex"
)

// For builds a descriptor for the Go type T. See [ForType].
func For[T any]() (*Schema, error) {
	var zero T

	return ForType(reflect.TypeOf(&zero).Elem())
}

// ForType builds a descriptor from a Go type:
//
//   - bool, the integer kinds, the float kinds, and string map to the
//     corresponding primitive descriptors;
//   - pointers map to Option of the pointee;
//   - slices and arrays map to Seq;
//   - string-keyed maps map to Map;
//   - structs map to Struct, fields in declaration order, named by the
//     `json` tag (falling back to the snake_case of the Go name) and
//     required unless the field is a pointer.
//
// The `tryparse` struct tag refines field descriptors:
//
//	Status string `json:"status" tryparse:"enum=Enabled|Disabled"`
//	Retries int64 `json:"retries" tryparse:"default=3"`
//	Note    string `json:"note" tryparse:"optional"`
//	Data    string `json:"data" tryparse:"single"`
//
// "enum=" turns a string field into a unit-variant enum; "default=" attaches
// a JSON-encoded default inserted when the field is absent; "optional" lifts
// the required bit without changing the Go type; "single" on the only field
// of a one-field struct marks it as accepting a bare value.
func ForType(t reflect.Type) (*Schema, error) {
	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return I64(), nil
	case reflect.Float32, reflect.Float64:
		return F64(), nil
	case reflect.String:
		return String(), nil
	case reflect.Pointer:
		inner, err := ForType(t.Elem())
		if err != nil {
			return nil, err
		}

		return Option(inner), nil
	case reflect.Slice, reflect.Array:
		inner, err := ForType(t.Elem())
		if err != nil {
			return nil, err
		}

		return Seq(inner), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s (only string keys)", ErrUnsupportedType, t.Key())
		}

		value, err := ForType(t.Elem())
		if err != nil {
			return nil, err
		}

		return Map(value), nil
	case reflect.Struct:
		return structSchema(t)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func structSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{Kind: KindStruct, Name: t.Name()}

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := FieldName(sf)
		if name == "-" {
			continue
		}

		field, single, err := buildField(sf, name)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}

		if single {
			s.SingleField = true
		}

		s.Fields = append(s.Fields, field)
	}

	if s.SingleField && len(s.Fields) != 1 {
		return nil, fmt.Errorf("%w: %q on a struct with %d fields", ErrInvalidTag, "single", len(s.Fields))
	}

	return s, nil
}

func buildField(sf reflect.StructField, name string) (Field, bool, error) {
	field := Field{
		Name:     name,
		Required: sf.Type.Kind() != reflect.Pointer,
	}

	var (
		single   bool
		enumSpec string
		defSpec  string
		hasDef   bool
	)

	for _, part := range splitTag(sf.Tag.Get("tryparse")) {
		switch {
		case part == "optional":
			field.Required = false
		case part == "single":
			single = true
		case strings.HasPrefix(part, "enum="):
			enumSpec = strings.TrimPrefix(part, "enum=")
		case strings.HasPrefix(part, "default="):
			defSpec = strings.TrimPrefix(part, "default=")
			hasDef = true
		case part != "":
			return Field{}, false, fmt.Errorf("%w: %q", ErrInvalidTag, part)
		}
	}

	switch {
	case enumSpec != "":
		if sf.Type.Kind() != reflect.String {
			return Field{}, false, fmt.Errorf("%w: enum= on non-string field", ErrInvalidTag)
		}

		names := strings.Split(enumSpec, "|")
		variants := make([]Variant, len(names))

		for i, n := range names {
			variants[i] = Unit(n)
		}

		field.Schema = Enum(sf.Name, variants...)
	default:
		fs, err := ForType(sf.Type)
		if err != nil {
			return Field{}, false, err
		}

		field.Schema = fs
	}

	if hasDef {
		def, err := defaultValue(defSpec)
		if err != nil {
			return Field{}, false, err
		}

		field.Default = def
		field.Required = true
	}

	return field, single, nil
}

// defaultValue decodes a tag default: JSON when it parses as JSON,
// otherwise a bare string.
func defaultValue(spec string) (*flex.Value, error) {
	src := flex.Source{Origin: flex.OriginSynthesized}

	var raw any
	if err := json.Unmarshal([]byte(spec), &raw); err != nil {
		return flex.NewString(spec, src), nil
	}

	return fromAny(raw, src), nil
}

func fromAny(raw any, src flex.Source) *flex.Value {
	switch t := raw.(type) {
	case nil:
		return flex.NewNull(src)
	case bool:
		return flex.NewBool(t, src)
	case float64:
		if t == float64(int64(t)) {
			return flex.NewInt(int64(t), src)
		}

		return flex.NewFloat(t, src)
	case string:
		return flex.NewString(t, src)
	case []any:
		items := make([]*flex.Value, len(t))
		for i, item := range t {
			items[i] = fromAny(item, src)
		}

		return flex.NewArray(items, src)
	case map[string]any:
		// Iteration order is unspecified here; defaults are small enough
		// that entry order never influences ranking.
		entries := make([]flex.Entry, 0, len(t))
		for k, v := range t {
			entries = append(entries, flex.Entry{Key: k, Value: fromAny(v, src)})
		}

		return flex.NewObject(entries, src)
	}

	return flex.NewNull(src)
}

// FieldName returns the canonical name of a struct field: the `json` tag
// when present, otherwise the snake_case of the Go name.
func FieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}

	return snakeCase(sf.Name)
}

func splitTag(tag string) []string {
	if tag == "" {
		return nil
	}

	return strings.Split(tag, ",")
}

// snakeCase lowercases a Go identifier, inserting underscores at word
// boundaries. Acronyms are split letter by letter ("XMLParser" becomes
// "x_m_l_parser"), matching the fuzzy matcher's normal form.
func snakeCase(name string) string {
	var sb strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}

			sb.WriteRune(unicode.ToLower(r))

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
