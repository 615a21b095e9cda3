package strategy_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/strategy"
)

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  string
	}{
		"plain text passes through": {
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		"leading bom stripped": {
			input: "\ufeff{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		"zero width characters removed": {
			input: "{\"a\"\u200b:\u200c 1\u200d}",
			want:  `{"a": 1}`,
		},
		"interior bom removed": {
			input: "{\"a\": \ufeff1}",
			want:  `{"a": 1}`,
		},
		"doubled backslash before non escape collapses": {
			input: `{"path": "C:\\qdir"}`,
			want:  `{"path": "C:\qdir"}`,
		},
		"valid escape run preserved": {
			input: `{"text": "line\\nbreak"}`,
			want:  `{"text": "line\\nbreak"}`,
		},
		"escaped quote preserved": {
			input: `{"q": "say \"hi\""}`,
			want:  `{"q": "say \"hi\""}`,
		},
		"backslashes outside strings untouched": {
			input: `\\x {"a": 1}`,
			want:  `\\x {"a": 1}`,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, truncated := strategy.Preprocess(tc.input)
			assert.Equal(t, tc.want, got)
			assert.False(t, truncated)
		})
	}
}

func TestPreprocessDepthCap(t *testing.T) {
	t.Parallel()

	deep := strings.Repeat("[", 60) + strings.Repeat("]", 60)

	got, truncated := strategy.Preprocess(deep)
	require.True(t, truncated)
	assert.Equal(t, strings.Repeat("[", 50)+strings.Repeat("]", 50), got)

	// Brackets inside string literals do not count toward depth.
	quoted := `{"s": "` + strings.Repeat("[", 80) + `"}`

	got, truncated = strategy.Preprocess(quoted)
	assert.False(t, truncated)
	assert.Equal(t, quoted, got)
}

func TestPreprocessIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"a": 1}`,
		"\ufeff{\"a\"\u200b: 1}",
		`{"path": "C:\\qdir\\qfile"}`,
		`{"text": "line\\nbreak"}`,
		strings.Repeat("{", 70) + "\"a\": 1",
		"no structure at all",
	}

	for _, input := range inputs {
		once, _ := strategy.Preprocess(input)
		twice, truncated := strategy.Preprocess(once)

		assert.Equal(t, once, twice, "input %q", input)
		assert.False(t, truncated, "second pass must not truncate for %q", input)
	}
}
