package tryparse

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/schema"
)

// ErrDecode indicates a coerced tree could not be materialised into the
// target Go value.
var ErrDecode = errors.New("decode failed")

// Decode materialises a coerced tree into target, which must be a non-nil
// pointer. The tree is expected to already conform to the descriptor the
// target was derived from; Decode performs no coercion of its own beyond
// exact numeric conversions.
func Decode(v *flex.Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer", ErrDecode)
	}

	return decodeInto(v, rv.Elem())
}

func decodeInto(v *flex.Value, rv reflect.Value) error {
	if rv.Kind() == reflect.Pointer {
		if v == nil || v.Kind == flex.Null {
			rv.SetZero()
			return nil
		}

		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}

		return decodeInto(v, rv.Elem())
	}

	if v == nil || v.Kind == flex.Null {
		rv.SetZero()
		return nil
	}

	switch v.Kind {
	case flex.Bool:
		if rv.Kind() != reflect.Bool {
			return mismatch(v, rv)
		}

		rv.SetBool(v.BoolVal)

	case flex.Int:
		return decodeInt(v, rv)

	case flex.Float:
		return decodeFloat(v, rv)

	case flex.String:
		if rv.Kind() != reflect.String {
			return mismatch(v, rv)
		}

		rv.SetString(v.StrVal)

	case flex.Array:
		return decodeArray(v, rv)

	case flex.Object:
		switch rv.Kind() {
		case reflect.Struct:
			return decodeStruct(v, rv)
		case reflect.Map:
			return decodeMap(v, rv)
		default:
			return mismatch(v, rv)
		}
	}

	return nil
}

func decodeInt(v *flex.Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.OverflowInt(v.IntVal) {
			return fmt.Errorf("%w: %d overflows %s", ErrDecode, v.IntVal, rv.Type())
		}

		rv.SetInt(v.IntVal)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.IntVal < 0 || rv.OverflowUint(uint64(v.IntVal)) {
			return fmt.Errorf("%w: %d overflows %s", ErrDecode, v.IntVal, rv.Type())
		}

		rv.SetUint(uint64(v.IntVal))
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(float64(v.IntVal))
	default:
		return mismatch(v, rv)
	}

	return nil
}

func decodeFloat(v *flex.Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(v.FloatVal)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.FloatVal != math.Trunc(v.FloatVal) {
			return mismatch(v, rv)
		}

		rv.SetInt(int64(v.FloatVal))
	default:
		return mismatch(v, rv)
	}

	return nil
}

func decodeArray(v *flex.Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(rv.Type(), len(v.Items), len(v.Items))

		for i, item := range v.Items {
			if err := decodeInto(item, out.Index(i)); err != nil {
				return err
			}
		}

		rv.Set(out)
	case reflect.Array:
		if rv.Len() != len(v.Items) {
			return mismatch(v, rv)
		}

		for i, item := range v.Items {
			if err := decodeInto(item, rv.Index(i)); err != nil {
				return err
			}
		}
	default:
		return mismatch(v, rv)
	}

	return nil
}

func decodeStruct(v *flex.Value, rv reflect.Value) error {
	t := rv.Type()

	byName := make(map[string]int, t.NumField())

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := schema.FieldName(sf)
		if name != "-" {
			byName[name] = i
		}
	}

	for _, e := range v.Entries {
		idx, ok := byName[e.Key]
		if !ok {
			continue
		}

		if err := decodeInto(e.Value, rv.Field(idx)); err != nil {
			return fmt.Errorf("field %s: %w", e.Key, err)
		}
	}

	return nil
}

func decodeMap(v *flex.Value, rv reflect.Value) error {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return mismatch(v, rv)
	}

	out := reflect.MakeMapWithSize(t, len(v.Entries))

	for _, e := range v.Entries {
		key := reflect.ValueOf(e.Key).Convert(t.Key())

		// First entry wins on duplicate keys, matching coercion order.
		if out.MapIndex(key).IsValid() {
			continue
		}

		elem := reflect.New(t.Elem()).Elem()
		if err := decodeInto(e.Value, elem); err != nil {
			return fmt.Errorf("key %s: %w", e.Key, err)
		}

		out.SetMapIndex(key, elem)
	}

	rv.Set(out)

	return nil
}

func mismatch(v *flex.Value, rv reflect.Value) error {
	return fmt.Errorf("%w: cannot store %s into %s", ErrDecode, v.Kind, rv.Type())
}
