package strategy

import "strings"

// maxBracketDepth is the structural safety cap applied by [Preprocess].
const maxBracketDepth = 50

// Preprocess normalises raw text before any strategy runs. In order: a
// leading UTF-8 byte-order mark is stripped, zero-width characters are
// removed, runs of doubled backslashes inside string literals are collapsed,
// and bracket nesting deeper than 50 is truncated with synthetic closers.
// The returned bool reports whether the depth cap fired.
//
// Preprocess never fails and is idempotent; where a transform would be
// ambiguous it is skipped rather than risk corrupting content.
func Preprocess(text string) (string, bool) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = stripZeroWidth(text)
	text = collapseBackslashes(text)

	return capDepth(text)
}

func stripZeroWidth(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}

		return r
	}, text)
}

// collapseBackslashes repairs double-escaping from naive re-emission: inside
// a string literal, a run of two or more backslashes not followed by a
// recognised escape character collapses to a single backslash. Runs that end
// in a valid escape are left alone.
func collapseBackslashes(text string) string {
	if !strings.Contains(text, `\\`) {
		return text
	}

	var sb strings.Builder

	sb.Grow(len(text))

	inString := false

	for i := 0; i < len(text); {
		c := text[i]

		if c == '"' {
			inString = !inString

			sb.WriteByte(c)
			i++

			continue
		}

		if !inString || c != '\\' {
			sb.WriteByte(c)
			i++

			continue
		}

		j := i
		for j < len(text) && text[j] == '\\' {
			j++
		}

		n := j - i
		if n >= 2 && (j >= len(text) || !isEscapeChar(text[j])) {
			n = 1
		}

		for range n {
			sb.WriteByte('\\')
		}

		// An odd run escapes the following character; emit it verbatim so
		// an escaped quote cannot flip the string state.
		if n%2 == 1 && j < len(text) {
			sb.WriteByte(text[j])
			j++
		}

		i = j
	}

	return sb.String()
}

func isEscapeChar(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}

	return false
}

// capDepth truncates the text at the point bracket nesting first exceeds
// the cap and appends the closers required to balance what is open.
func capDepth(text string) (string, bool) {
	var stack []byte

	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
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
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}

		if len(stack) > maxBracketDepth {
			var sb strings.Builder

			sb.WriteString(text[:i])

			for k := len(stack) - 2; k >= 0; k-- {
				sb.WriteByte(stack[k])
			}

			return sb.String(), true
		}
	}

	return text, false
}
