package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/microagents/tryparse/flex"
)

// prosePair matches "Key: value" lines in free text. Compiled once,
// shared read-only across calls.
var prosePair = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][A-Za-z0-9_ .-]*?)[ \t]*:[ \t]+(\S.*?)[ \t]*$`)

// Heuristic is the last-resort strategy. It looks for the outermost
// balanced brace or bracket region and parses it as JSON (strict, then
// repaired); failing that it recovers "Key: value" pairs from prose.
type Heuristic struct{}

// NewHeuristic creates the last-resort strategy.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Name implements [Strategy].
func (*Heuristic) Name() string { return "heuristic" }

// Priority implements [Strategy].
func (*Heuristic) Priority() int { return PriorityHeuristic }

// Run implements [Strategy]. It emits at most one candidate.
func (*Heuristic) Run(text string) []*flex.Value {
	if region, start, ok := balancedRegion(text); ok {
		span := &flex.Span{Start: start, End: start + len(region)}

		if v, err := parseStrictJSON(region, flex.Source{Origin: flex.OriginHeuristic}); err == nil {
			v.Span = span
			return []*flex.Value{v}
		}

		if v, err := repairAndParse(region, flex.OriginHeuristic); err == nil {
			v.Span = span
			return []*flex.Value{v}
		}

		return nil
	}

	return prosePairs(text)
}

// balancedRegion returns the {…} or […] region that opens at the first brace
// or bracket of the text. When that region does not close in balance it
// reports false; later regions are not searched.
func balancedRegion(text string) (region string, start int, ok bool) {
	start = strings.IndexAny(text, "{[")
	if start < 0 {
		return "", 0, false
	}

	var stack []byte

	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", 0, false
			}

			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				return text[start : i+1], start, true
			}
		}
	}

	return "", 0, false
}

// prosePairs builds an object from "Key: value" lines. Scalars are typed
// the way YAML would type them so numeric and boolean values survive.
func prosePairs(text string) []*flex.Value {
	matches := prosePair.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	src := flex.Source{Origin: flex.OriginHeuristic}

	entries := make([]flex.Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, flex.Entry{
			Key:   m[1],
			Value: proseScalar(m[2], src),
		})
	}

	return []*flex.Value{flex.NewObject(entries, src)}
}

func proseScalar(s string, src flex.Source) *flex.Value {
	switch strings.ToLower(s) {
	case "true", "yes":
		return flex.NewBool(true, src)
	case "false", "no":
		return flex.NewBool(false, src)
	case "null", "none", "~":
		return flex.NewNull(src)
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return flex.NewInt(i, src)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return flex.NewFloat(f, src)
	}

	return flex.NewString(strings.Trim(s, `"'`), src)
}
