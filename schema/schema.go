// Package schema describes target types at runtime. A [Schema] is the only
// contract the coercion engine has with the caller's type: a small tagged
// union mirroring the shapes the engine knows how to fill (primitives,
// options, sequences, string-keyed maps, structs, and enums).
//
// Descriptors can be built three ways: by hand with the constructors in this
// package, from a Go type via [For] or [ForType], or from a JSON Schema
// document via [FromJSONSchema].
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microagents/tryparse/flex"
)

// Sentinel errors returned by descriptor construction.
var (
	ErrUnsupportedType = errors.New("unsupported type")
	ErrInvalidTag      = errors.New("invalid tryparse tag")
	ErrInvalidSchema   = errors.New("invalid schema")
)

// Kind identifies the shape of a [Schema].
type Kind uint8

// Schema shapes.
const (
	KindBool Kind = iota
	KindI64
	KindF64
	KindString
	KindOption
	KindSeq
	KindMap
	KindStruct
	KindEnum
)

// VariantKind identifies the payload shape of an enum [Variant].
type VariantKind uint8

// Variant payload shapes.
const (
	VariantUnit VariantKind = iota
	VariantNewtype
	VariantTuple
	VariantStruct
)

// Schema is a runtime description of a target type.
type Schema struct {
	Kind Kind

	// Name is the declared type name for structs and enums. Diagnostics only.
	Name string

	// Elem is the inner schema for Option, Seq, and Map values.
	Elem *Schema

	// Fields are the ordered struct fields.
	Fields []Field

	// SingleField marks a one-field struct that accepts a bare value by
	// wrapping it under its only field.
	SingleField bool

	// Variants are the ordered enum variants.
	Variants []Variant

	// Union marks an enum whose variant is selected by trying all of them
	// and keeping the cheapest coercion.
	Union bool
}

// Field is one struct field: its canonical (snake_case) name, its schema,
// whether it must be present, and an optional default inserted when absent.
type Field struct {
	Name     string
	Schema   *Schema
	Required bool
	Default  *flex.Value
}

// Variant is one enum variant.
type Variant struct {
	Name   string
	Kind   VariantKind
	Inner  *Schema   // Newtype payload
	Elems  []*Schema // Tuple payload
	Fields []Field   // Struct payload
}

// Bool returns a boolean primitive descriptor.
func Bool() *Schema { return &Schema{Kind: KindBool} }

// I64 returns a signed integer primitive descriptor.
func I64() *Schema { return &Schema{Kind: KindI64} }

// F64 returns a floating-point primitive descriptor.
func F64() *Schema { return &Schema{Kind: KindF64} }

// String returns a string primitive descriptor.
func String() *Schema { return &Schema{Kind: KindString} }

// Option wraps inner so that null and absence coerce to none.
func Option(inner *Schema) *Schema {
	return &Schema{Kind: KindOption, Elem: inner}
}

// Seq returns a sequence descriptor with the given element schema.
func Seq(inner *Schema) *Schema {
	return &Schema{Kind: KindSeq, Elem: inner}
}

// Map returns a string-keyed map descriptor with the given value schema.
func Map(value *Schema) *Schema {
	return &Schema{Kind: KindMap, Elem: value}
}

// Struct returns a struct descriptor with fields in declaration order.
func Struct(name string, fields ...Field) *Schema {
	return &Schema{Kind: KindStruct, Name: name, Fields: fields}
}

// SingleFieldStruct returns a one-field struct descriptor that accepts a
// bare value by implying its only field's key.
func SingleFieldStruct(name string, field Field) *Schema {
	return &Schema{Kind: KindStruct, Name: name, Fields: []Field{field}, SingleField: true}
}

// NewField returns a field descriptor.
func NewField(name string, s *Schema, required bool) Field {
	return Field{Name: name, Schema: s, Required: required}
}

// NewFieldDefault returns a required field that falls back to def when the
// input has no matching entry.
func NewFieldDefault(name string, s *Schema, def *flex.Value) Field {
	return Field{Name: name, Schema: s, Required: true, Default: def}
}

// Enum returns an enum descriptor whose variant is selected by name.
func Enum(name string, variants ...Variant) *Schema {
	return &Schema{Kind: KindEnum, Name: name, Variants: variants}
}

// Union returns an enum descriptor whose variant is selected by trying each
// one and keeping the cheapest successful coercion.
func Union(name string, variants ...Variant) *Schema {
	return &Schema{Kind: KindEnum, Name: name, Variants: variants, Union: true}
}

// Unit returns a payload-less variant.
func Unit(name string) Variant {
	return Variant{Name: name, Kind: VariantUnit}
}

// Newtype returns a variant wrapping a single inner value.
func Newtype(name string, inner *Schema) Variant {
	return Variant{Name: name, Kind: VariantNewtype, Inner: inner}
}

// Tuple returns a variant wrapping a fixed-length sequence of values.
func Tuple(name string, elems ...*Schema) Variant {
	return Variant{Name: name, Kind: VariantTuple, Elems: elems}
}

// StructVariant returns a variant wrapping named fields.
func StructVariant(name string, fields ...Field) Variant {
	return Variant{Name: name, Kind: VariantStruct, Fields: fields}
}

// String renders the descriptor shape for diagnostics and error messages.
func (s *Schema) String() string {
	if s == nil {
		return "<nil>"
	}

	switch s.Kind {
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindOption:
		return "option<" + s.Elem.String() + ">"
	case KindSeq:
		return "seq<" + s.Elem.String() + ">"
	case KindMap:
		return "map<string," + s.Elem.String() + ">"
	case KindStruct:
		if s.Name != "" {
			return "struct " + s.Name
		}

		names := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			names[i] = f.Name
		}

		return "struct{" + strings.Join(names, ",") + "}"
	case KindEnum:
		kw := "enum"
		if s.Union {
			kw = "union"
		}

		if s.Name != "" {
			return kw + " " + s.Name
		}

		names := make([]string, len(s.Variants))
		for i, v := range s.Variants {
			names[i] = v.Name
		}

		return kw + "{" + strings.Join(names, ",") + "}"
	}

	return fmt.Sprintf("schema(%d)", uint8(s.Kind))
}

// VariantByName returns the declared variant with the given name, or nil.
func (s *Schema) VariantByName(name string) *Variant {
	for i := range s.Variants {
		if s.Variants[i].Name == name {
			return &s.Variants[i]
		}
	}

	return nil
}
