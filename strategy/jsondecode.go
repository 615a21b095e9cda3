package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/microagents/tryparse/flex"
)

var errTrailingContent = errors.New("trailing content after value")

// parseStrictJSON decodes text as strict JSON into a [flex.Value] tagged
// with src. Unlike a plain unmarshal it preserves object entry order and
// duplicate keys, and keeps the int/float distinction exactly as written.
func parseStrictJSON(text string, src flex.Source) (*flex.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := decodeValue(dec, src)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingContent
	}

	return v, nil
}

func decodeValue(dec *json.Decoder, src flex.Source) (*flex.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, src)
		case '[':
			return decodeArray(dec, src)
		}

		return nil, fmt.Errorf("unexpected delimiter %q", t.String())
	case bool:
		return flex.NewBool(t, src), nil
	case string:
		return flex.NewString(t, src), nil
	case json.Number:
		return numberValue(t, src)
	case nil:
		return flex.NewNull(src), nil
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder, src flex.Source) (*flex.Value, error) {
	var entries []flex.Entry

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string key %v", keyTok)
		}

		val, err := decodeValue(dec, src)
		if err != nil {
			return nil, err
		}

		entries = append(entries, flex.Entry{Key: key, Value: val})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read close: %w", err)
	}

	return flex.NewObject(entries, src), nil
}

func decodeArray(dec *json.Decoder, src flex.Source) (*flex.Value, error) {
	var items []*flex.Value

	for dec.More() {
		item, err := decodeValue(dec, src)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read close: %w", err)
	}

	return flex.NewArray(items, src), nil
}

// numberValue keeps integers as Int and everything else as Float, exactly
// as the input spelled them.
func numberValue(n json.Number, src flex.Source) (*flex.Value, error) {
	s := n.String()

	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return flex.NewInt(i, src), nil
		}
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", s, err)
	}

	return flex.NewFloat(f, src), nil
}
