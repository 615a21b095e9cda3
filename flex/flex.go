// Package flex defines the intermediate value tree shared by the tryparse
// extraction strategies and the coercion engine.
//
// A [Value] is a JSON-like tagged union annotated with provenance: the
// [Source] that produced it, a confidence in [0,1], and an append-only
// [Transformation] log describing every edit the coercion engine applied.
// Object entries are ordered and may contain duplicate keys; both properties
// are load-bearing for deterministic ranking and the first-wins duplicate
// rule during coercion.
package flex

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the shape of a [Value].
type Kind uint8

// Value shapes.
const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Array
	Object
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Origin identifies the strategy that produced a subtree.
type Origin uint8

// Strategy origins.
const (
	OriginDirectJSON Origin = iota
	OriginMarkdown
	OriginYAML
	OriginJSONFixer
	OriginHeuristic
	OriginSynthesized
)

// String returns the name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginDirectJSON:
		return "direct-json"
	case OriginMarkdown:
		return "markdown"
	case OriginYAML:
		return "yaml"
	case OriginJSONFixer:
		return "json-fixer"
	case OriginHeuristic:
		return "heuristic"
	case OriginSynthesized:
		return "synthesized"
	}

	return fmt.Sprintf("origin(%d)", uint8(o))
}

// Source records which strategy produced a subtree. Fixes is the number of
// repairs the JSON fixer applied before the text parsed; it is non-zero for
// fixer-produced trees and for markdown or heuristic trees whose payload
// needed repair.
type Source struct {
	Origin Origin
	Fixes  int
}

// String renders the source for diagnostics, e.g. "json-fixer{3}".
func (s Source) String() string {
	if s.Fixes > 0 {
		return fmt.Sprintf("%s{%d}", s.Origin, s.Fixes)
	}

	return s.Origin.String()
}

// Span is an optional byte range into the original raw input. Informational.
type Span struct {
	Start int
	End   int
}

// TransformKind names an edit applied during coercion. The set is closed.
type TransformKind uint8

// Transformation kinds.
const (
	StringToNumber TransformKind = iota
	StringToBool
	NumberToString
	FloatToInt
	SingleToArray
	FieldRenamed
	DefaultInserted
	EnumFuzzyMatched
	KeyImplied
	VariantSelected
)

// String returns the name of the transformation kind.
func (k TransformKind) String() string {
	switch k {
	case StringToNumber:
		return "string-to-number"
	case StringToBool:
		return "string-to-bool"
	case NumberToString:
		return "number-to-string"
	case FloatToInt:
		return "float-to-int"
	case SingleToArray:
		return "single-to-array"
	case FieldRenamed:
		return "field-renamed"
	case DefaultInserted:
		return "default-inserted"
	case EnumFuzzyMatched:
		return "enum-fuzzy-matched"
	case KeyImplied:
		return "key-implied"
	case VariantSelected:
		return "variant-selected"
	}

	return fmt.Sprintf("transform(%d)", uint8(k))
}

// Transformation is one recorded edit. Path addresses the edited node in the
// coerced result tree, rooted at "$" and spelled with canonical field names;
// the path of a renamed, implied, or defaulted field does not resolve in the
// pre-coercion candidate. From and To carry
// edit detail where it exists (the old and new key for [FieldRenamed], the
// matched variant for [VariantSelected] and [EnumFuzzyMatched]).
type Transformation struct {
	Kind TransformKind
	Path string
	From string
	To   string
}

// String renders the transformation for diagnostics.
func (t Transformation) String() string {
	switch {
	case t.From != "" && t.To != "":
		return fmt.Sprintf("%s@%s(%s->%s)", t.Kind, t.Path, t.From, t.To)
	case t.To != "":
		return fmt.Sprintf("%s@%s(%s)", t.Kind, t.Path, t.To)
	}

	return fmt.Sprintf("%s@%s", t.Kind, t.Path)
}

// Entry is one ordered key-value pair of an object node.
type Entry struct {
	Key   string
	Value *Value
}

// Value is a node in the intermediate tree. Exactly one of the payload
// fields is meaningful, selected by Kind. Trees are created by strategies
// with uniform Source and Confidence 1.0; the coercion engine never mutates
// a candidate, it produces a new tree with Trace appended on the root and
// Confidence decayed by 0.95 per recorded transformation.
type Value struct {
	Kind Kind

	BoolVal  bool
	IntVal   int64
	FloatVal float64
	StrVal   string
	Items    []*Value
	Entries  []Entry

	Source     Source
	Confidence float64
	Trace      []Transformation
	Span       *Span
}

// NewNull returns a null node.
func NewNull(src Source) *Value {
	return &Value{Kind: Null, Source: src, Confidence: 1}
}

// NewBool returns a bool node.
func NewBool(b bool, src Source) *Value {
	return &Value{Kind: Bool, BoolVal: b, Source: src, Confidence: 1}
}

// NewInt returns an int node.
func NewInt(i int64, src Source) *Value {
	return &Value{Kind: Int, IntVal: i, Source: src, Confidence: 1}
}

// NewFloat returns a float node.
func NewFloat(f float64, src Source) *Value {
	return &Value{Kind: Float, FloatVal: f, Source: src, Confidence: 1}
}

// NewString returns a string node.
func NewString(s string, src Source) *Value {
	return &Value{Kind: String, StrVal: s, Source: src, Confidence: 1}
}

// NewArray returns an array node holding items.
func NewArray(items []*Value, src Source) *Value {
	return &Value{Kind: Array, Items: items, Source: src, Confidence: 1}
}

// NewObject returns an object node holding the ordered entries.
func NewObject(entries []Entry, src Source) *Value {
	return &Value{Kind: Object, Entries: entries, Source: src, Confidence: 1}
}

// Clone deep-copies the tree. The coercion engine copies field defaults with
// it, so a coerced result never shares nodes with its descriptor.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}

	out := *v

	if v.Span != nil {
		span := *v.Span
		out.Span = &span
	}

	if v.Trace != nil {
		out.Trace = make([]Transformation, len(v.Trace))
		copy(out.Trace, v.Trace)
	}

	if v.Items != nil {
		out.Items = make([]*Value, len(v.Items))
		for i, item := range v.Items {
			out.Items[i] = item.Clone()
		}
	}

	if v.Entries != nil {
		out.Entries = make([]Entry, len(v.Entries))
		for i, e := range v.Entries {
			out.Entries[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
	}

	return &out
}

// Record appends a transformation to the root log and decays confidence.
func (v *Value) Record(t Transformation) {
	v.Trace = append(v.Trace, t)
	v.Confidence *= 0.95
}

// TraceKinds returns the kinds of all recorded transformations in order.
// Convenience for assertions and diagnostics.
func (v *Value) TraceKinds() []TransformKind {
	if len(v.Trace) == 0 {
		return nil
	}

	kinds := make([]TransformKind, len(v.Trace))
	for i, t := range v.Trace {
		kinds[i] = t.Kind
	}

	return kinds
}

// At resolves a transformation path ("$", "$.a.b", "$.items[2]") to the node
// it addresses, or nil when the path does not resolve. Object steps take the
// first entry with the given key, matching the first-wins duplicate rule.
func (v *Value) At(path string) *Value {
	if v == nil || !strings.HasPrefix(path, "$") {
		return nil
	}

	cur := v
	rest := path[1:]

	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]

			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}

			key := rest[:end]
			rest = rest[end:]

			cur = cur.field(key)

		case '[':
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return nil
			}

			idx, err := strconv.Atoi(rest[1:close])
			if err != nil {
				return nil
			}

			rest = rest[close+1:]

			if cur == nil || cur.Kind != Array || idx < 0 || idx >= len(cur.Items) {
				return nil
			}

			cur = cur.Items[idx]

		default:
			return nil
		}

		if cur == nil {
			return nil
		}
	}

	return cur
}

func (v *Value) field(key string) *Value {
	if v == nil || v.Kind != Object {
		return nil
	}

	for _, e := range v.Entries {
		if e.Key == key {
			return e.Value
		}
	}

	return nil
}

// Equal reports structural equality of shapes and payloads. Provenance,
// confidence, and traces are ignored.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}

	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.BoolVal == o.BoolVal
	case Int:
		return v.IntVal == o.IntVal
	case Float:
		return v.FloatVal == o.FloatVal ||
			(math.IsNaN(v.FloatVal) && math.IsNaN(o.FloatVal))
	case String:
		return v.StrVal == o.StrVal
	case Array:
		if len(v.Items) != len(o.Items) {
			return false
		}

		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}

		return true
	case Object:
		if len(v.Entries) != len(o.Entries) {
			return false
		}

		for i := range v.Entries {
			if v.Entries[i].Key != o.Entries[i].Key ||
				!v.Entries[i].Value.Equal(o.Entries[i].Value) {
				return false
			}
		}

		return true
	}

	return false
}

// MarshalJSON renders the tree as plain JSON, preserving object entry order
// and emitting duplicate keys as-is.
func (v *Value) MarshalJSON() ([]byte, error) {
	var sb strings.Builder

	v.writeJSON(&sb)

	return []byte(sb.String()), nil
}

func (v *Value) writeJSON(sb *strings.Builder) {
	if v == nil {
		sb.WriteString("null")
		return
	}

	switch v.Kind {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.BoolVal))
	case Int:
		sb.WriteString(strconv.FormatInt(v.IntVal, 10))
	case Float:
		if math.IsInf(v.FloatVal, 0) || math.IsNaN(v.FloatVal) {
			// JSON has no representation for these; emit null.
			sb.WriteString("null")
			return
		}

		sb.WriteString(strconv.FormatFloat(v.FloatVal, 'g', -1, 64))
	case String:
		sb.Write(appendJSONString(v.StrVal))
	case Array:
		sb.WriteByte('[')

		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}

			item.writeJSON(sb)
		}

		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')

		for i, e := range v.Entries {
			if i > 0 {
				sb.WriteByte(',')
			}

			sb.Write(appendJSONString(e.Key))
			sb.WriteByte(':')
			e.Value.writeJSON(sb)
		}

		sb.WriteByte('}')
	}
}

func appendJSONString(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return []byte(strconv.Quote(s))
	}

	return b
}

// JoinPath appends an object step to a transformation path.
func JoinPath(path, key string) string {
	return path + "." + key
}

// IndexPath appends an array step to a transformation path.
func IndexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
