// Package coerce fits candidate [flex.Value] trees into caller-supplied
// [schema.Schema] descriptors. The engine walks the (schema shape, value
// shape) matrix, applying type coercions, fuzzy field and enum matching,
// and union variant selection, recording every edit as a transformation so
// the scorer can price how far the input was from the target.
//
// Coercion never mutates a candidate. A successful call returns a new tree
// conforming to the schema, with the edit log on its root and confidence
// decayed per edit; a failed call returns a structured error naming the
// path and the mismatch.
package coerce

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/schema"
)

// Coercer fits values into schemas. The zero value is strict; use
// [WithFuzzy] to admit fuzzy field and enum matching.
type Coercer struct {
	fuzzy bool
}

// Option configures a [Coercer].
type Option func(*Coercer)

// WithFuzzy toggles fuzzy field and enum name matching. Type coercions
// apply in both modes; strict mode only requires names to match exactly.
func WithFuzzy(fuzzy bool) Option {
	return func(c *Coercer) {
		c.fuzzy = fuzzy
	}
}

// New creates a [Coercer]. Fuzzy matching is on by default.
func New(opts ...Option) *Coercer {
	c := &Coercer{fuzzy: true}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// editLog accumulates transformations during one coercion walk.
type editLog struct {
	list []flex.Transformation
}

func (l *editLog) record(kind flex.TransformKind, path, from, to string) {
	l.list = append(l.list, flex.Transformation{Kind: kind, Path: path, From: from, To: to})
}

// Coerce fits candidate v into s, returning a new tree with the edit log on
// its root, or a structured failure. The candidate itself is never touched.
func (c *Coercer) Coerce(s *schema.Schema, v *flex.Value) (*flex.Value, error) {
	lg := &editLog{}

	out, err := c.coerce(s, v, "$", lg)
	if err != nil {
		return nil, err
	}

	out.Source = v.Source
	out.Trace = lg.list
	out.Confidence = v.Confidence * math.Pow(0.95, float64(len(lg.list)))

	return out, nil
}

func (c *Coercer) coerce(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch s.Kind {
	case schema.KindBool:
		return c.coerceBool(v, path, lg)
	case schema.KindI64:
		return c.coerceI64(v, path, lg)
	case schema.KindF64:
		return c.coerceF64(v, path, lg)
	case schema.KindString:
		return c.coerceString(v, path, lg)
	case schema.KindOption:
		if v.Kind == flex.Null {
			return flex.NewNull(v.Source), nil
		}

		return c.coerce(s.Elem, v, path, lg)
	case schema.KindSeq:
		return c.coerceSeq(s, v, path, lg)
	case schema.KindMap:
		return c.coerceMap(s, v, path, lg)
	case schema.KindStruct:
		return c.coerceStruct(s, v, path, lg)
	case schema.KindEnum:
		if s.Union {
			return c.coerceUnion(s, v, path, lg)
		}

		return c.coerceEnum(s, v, path, lg)
	}

	return nil, &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
}

func (c *Coercer) coerceBool(v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.Bool:
		return flex.NewBool(v.BoolVal, v.Source), nil
	case flex.String:
		switch strings.ToLower(strings.TrimSpace(v.StrVal)) {
		case "true", "yes", "on", "1":
			lg.record(flex.StringToBool, path, "", "")
			return flex.NewBool(true, v.Source), nil
		case "false", "no", "off", "0":
			lg.record(flex.StringToBool, path, "", "")
			return flex.NewBool(false, v.Source), nil
		}
	case flex.Int:
		if v.IntVal == 0 || v.IntVal == 1 {
			lg.record(flex.StringToBool, path, "", "")
			return flex.NewBool(v.IntVal == 1, v.Source), nil
		}
	}

	return nil, &CoercionError{Path: path, Expected: "bool", Got: v.Kind.String()}
}

func (c *Coercer) coerceI64(v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.Int:
		return flex.NewInt(v.IntVal, v.Source), nil
	case flex.Float:
		// Only an exact integer value may cross the float/int boundary.
		if v.FloatVal == math.Trunc(v.FloatVal) &&
			v.FloatVal >= math.MinInt64 && v.FloatVal < math.MaxInt64 {
			lg.record(flex.FloatToInt, path, "", "")
			return flex.NewInt(int64(v.FloatVal), v.Source), nil
		}
	case flex.String:
		if i, ok := parseIntString(v.StrVal); ok {
			lg.record(flex.StringToNumber, path, "", "")
			return flex.NewInt(i, v.Source), nil
		}
	}

	return nil, &CoercionError{Path: path, Expected: "i64", Got: v.Kind.String()}
}

func (c *Coercer) coerceF64(v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.Float:
		return flex.NewFloat(v.FloatVal, v.Source), nil
	case flex.Int:
		// Exact widening; no transformation recorded.
		return flex.NewFloat(float64(v.IntVal), v.Source), nil
	case flex.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.StrVal), "_", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			lg.record(flex.StringToNumber, path, "", "")
			return flex.NewFloat(f, v.Source), nil
		}
	}

	return nil, &CoercionError{Path: path, Expected: "f64", Got: v.Kind.String()}
}

func (c *Coercer) coerceString(v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.String:
		return flex.NewString(v.StrVal, v.Source), nil
	case flex.Int:
		lg.record(flex.NumberToString, path, "", "")
		return flex.NewString(strconv.FormatInt(v.IntVal, 10), v.Source), nil
	case flex.Float:
		lg.record(flex.NumberToString, path, "", "")
		return flex.NewString(strconv.FormatFloat(v.FloatVal, 'g', -1, 64), v.Source), nil
	case flex.Bool:
		lg.record(flex.NumberToString, path, "", "")
		return flex.NewString(strconv.FormatBool(v.BoolVal), v.Source), nil
	}

	return nil, &CoercionError{Path: path, Expected: "string", Got: v.Kind.String()}
}

func (c *Coercer) coerceSeq(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.Array:
		items := make([]*flex.Value, 0, len(v.Items))

		for i, item := range v.Items {
			cv, err := c.coerce(s.Elem, item, flex.IndexPath(path, i), lg)
			if err != nil {
				return nil, err
			}

			items = append(items, cv)
		}

		return flex.NewArray(items, v.Source), nil

	case flex.Object:
		// An object feeds a sequence only when the elements are key/value
		// pairs by convention.
		keyField, valueField, ok := keyValueFields(s.Elem)
		if !ok {
			return nil, &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
		}

		items := make([]*flex.Value, 0, len(v.Entries))

		for i, e := range v.Entries {
			pair := flex.NewObject([]flex.Entry{
				{Key: keyField, Value: flex.NewString(e.Key, v.Source)},
				{Key: valueField, Value: e.Value},
			}, v.Source)

			cv, err := c.coerce(s.Elem, pair, flex.IndexPath(path, i), lg)
			if err != nil {
				return nil, err
			}

			items = append(items, cv)
		}

		return flex.NewArray(items, v.Source), nil

	default:
		// A bare value becomes a one-element sequence.
		lg.record(flex.SingleToArray, path, "", "")

		cv, err := c.coerce(s.Elem, v, flex.IndexPath(path, 0), lg)
		if err != nil {
			return nil, err
		}

		return flex.NewArray([]*flex.Value{cv}, v.Source), nil
	}
}

// keyValueFields reports the canonical key and value field names of a
// two-field struct following the key/value convention.
func keyValueFields(s *schema.Schema) (keyField, valueField string, ok bool) {
	if s == nil || s.Kind != schema.KindStruct || len(s.Fields) != 2 {
		return "", "", false
	}

	for _, f := range s.Fields {
		switch NormalizeName(f.Name) {
		case "key":
			keyField = f.Name
		case "value":
			valueField = f.Name
		}
	}

	return keyField, valueField, keyField != "" && valueField != ""
}

func (c *Coercer) coerceMap(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.Object:
		entries := make([]flex.Entry, 0, len(v.Entries))

		for _, e := range v.Entries {
			cv, err := c.coerce(s.Elem, e.Value, flex.JoinPath(path, e.Key), lg)
			if err != nil {
				return nil, err
			}

			entries = append(entries, flex.Entry{Key: e.Key, Value: cv})
		}

		return flex.NewObject(entries, v.Source), nil

	case flex.Array:
		entries := make([]flex.Entry, 0, len(v.Items))

		for i, item := range v.Items {
			key, value, err := c.mapPair(item, flex.IndexPath(path, i), lg)
			if err != nil {
				return nil, err
			}

			cv, err := c.coerce(s.Elem, value, flex.JoinPath(path, key), lg)
			if err != nil {
				return nil, err
			}

			entries = append(entries, flex.Entry{Key: key, Value: cv})
		}

		return flex.NewObject(entries, v.Source), nil
	}

	return nil, &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
}

// mapPair extracts the key string and value node from one {key,value}
// element of an array-shaped map.
func (c *Coercer) mapPair(item *flex.Value, path string, lg *editLog) (string, *flex.Value, error) {
	if item.Kind != flex.Object {
		return "", nil, &CoercionError{Path: path, Expected: "object{key,value}", Got: item.Kind.String()}
	}

	var (
		key   *flex.Value
		value *flex.Value
	)

	for _, e := range item.Entries {
		switch {
		case key == nil && keyMatches(e.Key, "key", c.fuzzy):
			if e.Key != "key" {
				lg.record(flex.FieldRenamed, flex.JoinPath(path, "key"), e.Key, "key")
			}

			key = e.Value
		case value == nil && keyMatches(e.Key, "value", c.fuzzy):
			if e.Key != "value" {
				lg.record(flex.FieldRenamed, flex.JoinPath(path, "value"), e.Key, "value")
			}

			value = e.Value
		}
	}

	if key == nil || value == nil {
		return "", nil, &CoercionError{Path: path, Expected: "object{key,value}", Got: "object"}
	}

	ks, err := c.coerceString(key, flex.JoinPath(path, "key"), lg)
	if err != nil {
		return "", nil, err
	}

	return ks.StrVal, value, nil
}

func (c *Coercer) coerceStruct(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	if v.Kind != flex.Object {
		if s.SingleField && len(s.Fields) == 1 && s.Fields[0].Required {
			f := s.Fields[0]
			fieldPath := flex.JoinPath(path, f.Name)

			lg.record(flex.KeyImplied, fieldPath, "", f.Name)

			cv, err := c.coerce(f.Schema, v, fieldPath, lg)
			if err != nil {
				return nil, err
			}

			return flex.NewObject([]flex.Entry{{Key: f.Name, Value: cv}}, v.Source), nil
		}

		return nil, &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
	}

	return c.coerceFields(s.Fields, v, path, lg)
}

// coerceFields fills schema fields from an object's entries in declaration
// order. The first entry whose key matches a field wins; later duplicates
// and unmatched entries are ignored.
func (c *Coercer) coerceFields(fields []schema.Field, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	entries := make([]flex.Entry, 0, len(fields))

	for _, f := range fields {
		fieldPath := flex.JoinPath(path, f.Name)

		matched := -1

		for i, e := range v.Entries {
			if keyMatches(e.Key, f.Name, c.fuzzy) {
				matched = i
				break
			}
		}

		if matched >= 0 {
			e := v.Entries[matched]

			if e.Key != f.Name {
				lg.record(flex.FieldRenamed, fieldPath, e.Key, f.Name)
			}

			cv, err := c.coerce(f.Schema, e.Value, fieldPath, lg)
			if err != nil {
				return nil, err
			}

			entries = append(entries, flex.Entry{Key: f.Name, Value: cv})

			continue
		}

		switch {
		case f.Schema.Kind == schema.KindOption:
			// Absence of an optional field is none; no transformation.
			entries = append(entries, flex.Entry{Key: f.Name, Value: flex.NewNull(v.Source)})
		case f.Default != nil:
			lg.record(flex.DefaultInserted, fieldPath, "", "")
			entries = append(entries, flex.Entry{Key: f.Name, Value: f.Default.Clone()})
		case f.Required:
			return nil, &MissingFieldError{Path: fieldPath}
		}
	}

	return flex.NewObject(entries, v.Source), nil
}

func (c *Coercer) coerceEnum(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch v.Kind {
	case flex.String:
		idx := c.matchUnitVariant(s, v.StrVal)
		if idx < 0 {
			return nil, &CoercionError{Path: path, Expected: s.String(), Got: fmt.Sprintf("string %q", v.StrVal)}
		}

		name := s.Variants[idx].Name
		if v.StrVal != name {
			lg.record(flex.EnumFuzzyMatched, path, v.StrVal, name)
		}

		return flex.NewString(name, v.Source), nil

	case flex.Object:
		if len(v.Entries) != 1 {
			return nil, &CoercionError{Path: path, Expected: s.String(), Got: "object"}
		}

		entry := v.Entries[0]

		idx := c.matchPayloadVariant(s, entry.Key)
		if idx < 0 {
			return nil, &CoercionError{Path: path, Expected: s.String(), Got: fmt.Sprintf("object key %q", entry.Key)}
		}

		variant := &s.Variants[idx]
		if entry.Key != variant.Name {
			lg.record(flex.EnumFuzzyMatched, path, entry.Key, variant.Name)
		}

		payload, err := c.coercePayload(variant, entry.Value, flex.JoinPath(path, variant.Name), lg)
		if err != nil {
			return nil, err
		}

		return flex.NewObject([]flex.Entry{{Key: variant.Name, Value: payload}}, v.Source), nil
	}

	return nil, &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
}

// matchUnitVariant resolves an input string to a unit variant index.
func (c *Coercer) matchUnitVariant(s *schema.Schema, input string) int {
	unitNames := make([]string, 0, len(s.Variants))
	unitIdx := make([]int, 0, len(s.Variants))

	for i, variant := range s.Variants {
		if variant.Kind != schema.VariantUnit {
			continue
		}

		if input == variant.Name {
			return i
		}

		unitNames = append(unitNames, variant.Name)
		unitIdx = append(unitIdx, i)
	}

	if !c.fuzzy {
		return -1
	}

	if m := matchEnum(input, unitNames); m >= 0 {
		return unitIdx[m]
	}

	return -1
}

// matchPayloadVariant resolves a single-entry object key to a non-unit
// variant index.
func (c *Coercer) matchPayloadVariant(s *schema.Schema, key string) int {
	names := make([]string, 0, len(s.Variants))
	idxs := make([]int, 0, len(s.Variants))

	for i, variant := range s.Variants {
		if variant.Kind == schema.VariantUnit {
			continue
		}

		if key == variant.Name {
			return i
		}

		names = append(names, variant.Name)
		idxs = append(idxs, i)
	}

	if !c.fuzzy {
		return -1
	}

	if m := matchEnum(key, names); m >= 0 {
		return idxs[m]
	}

	return -1
}

func (c *Coercer) coercePayload(variant *schema.Variant, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	switch variant.Kind {
	case schema.VariantNewtype:
		return c.coerce(variant.Inner, v, path, lg)
	case schema.VariantTuple:
		if v.Kind != flex.Array || len(v.Items) != len(variant.Elems) {
			return nil, &CoercionError{
				Path:     path,
				Expected: fmt.Sprintf("tuple of %d", len(variant.Elems)),
				Got:      v.Kind.String(),
			}
		}

		items := make([]*flex.Value, 0, len(v.Items))

		for i, elem := range variant.Elems {
			cv, err := c.coerce(elem, v.Items[i], flex.IndexPath(path, i), lg)
			if err != nil {
				return nil, err
			}

			items = append(items, cv)
		}

		return flex.NewArray(items, v.Source), nil
	case schema.VariantStruct:
		if v.Kind != flex.Object {
			return nil, &CoercionError{Path: path, Expected: "object", Got: v.Kind.String()}
		}

		return c.coerceFields(variant.Fields, v, path, lg)
	}

	return nil, &CoercionError{Path: path, Expected: "payload variant", Got: v.Kind.String()}
}

// coerceUnion selects a union variant by full trial coercion: every variant
// is attempted, each success is scored, and the cheapest wins with ties
// broken by declaration order.
func (c *Coercer) coerceUnion(s *schema.Schema, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	var (
		bestOut   *flex.Value
		bestTrace []flex.Transformation
		bestName  string
		bestScore int
		firstErr  error
	)

	for i := range s.Variants {
		variant := &s.Variants[i]
		trial := &editLog{}

		out, err := c.coerceUnionVariant(variant, v, path, trial)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		sc := trialScore(out, v, trial.list)
		if bestOut == nil || sc < bestScore {
			bestOut = out
			bestTrace = trial.list
			bestName = variant.Name
			bestScore = sc
		}
	}

	if bestOut == nil {
		if firstErr == nil {
			firstErr = &CoercionError{Path: path, Expected: s.String(), Got: v.Kind.String()}
		}

		return nil, fmt.Errorf("no %s variant matched: %w", s.String(), firstErr)
	}

	lg.list = append(lg.list, bestTrace...)
	lg.record(flex.VariantSelected, path, "", bestName)

	return bestOut, nil
}

func (c *Coercer) coerceUnionVariant(variant *schema.Variant, v *flex.Value, path string, lg *editLog) (*flex.Value, error) {
	if variant.Kind == schema.VariantUnit {
		if v.Kind != flex.String {
			return nil, &CoercionError{Path: path, Expected: variant.Name, Got: v.Kind.String()}
		}

		matched := v.StrVal == variant.Name ||
			(c.fuzzy && matchEnum(v.StrVal, []string{variant.Name}) == 0)
		if !matched {
			return nil, &CoercionError{Path: path, Expected: variant.Name, Got: fmt.Sprintf("string %q", v.StrVal)}
		}

		if v.StrVal != variant.Name {
			lg.record(flex.EnumFuzzyMatched, path, v.StrVal, variant.Name)
		}

		return flex.NewString(variant.Name, v.Source), nil
	}

	payload, err := c.coercePayload(variant, v, flex.JoinPath(path, variant.Name), lg)
	if err != nil {
		return nil, err
	}

	return flex.NewObject([]flex.Entry{{Key: variant.Name, Value: payload}}, v.Source), nil
}

// trialScore prices one union attempt the same way the candidate scorer
// would price the final tree.
func trialScore(out, cand *flex.Value, trace []flex.Transformation) int {
	tmp := out.Clone()
	tmp.Source = cand.Source
	tmp.Trace = slices.Clone(trace)
	tmp.Confidence = cand.Confidence * math.Pow(0.95, float64(len(trace)))

	return flex.Score(tmp)
}

// parseIntString parses an integer spelled as a string: optional sign,
// optional underscore separators, decimal or 0x hex.
func parseIntString(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" {
		return 0, false
	}

	neg := false

	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}

	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}

	if neg {
		v = -v
	}

	return v, true
}
