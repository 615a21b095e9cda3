package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/strategy"
)

func TestDirectJSON(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		check func(*testing.T, []*flex.Value)
	}{
		"object": {
			input: `{"a": 1, "b": "two"}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				assert.Equal(t, "a", got[0].Entries[0].Key)
				assert.Equal(t, int64(1), got[0].Entries[0].Value.IntVal)
			},
		},
		"top level string": {
			input: `"hello"`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.String, got[0].Kind)
				assert.Equal(t, "hello", got[0].StrVal)
			},
		},
		"int stays int": {
			input: `{"n": 42}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.Int, got[0].Entries[0].Value.Kind)
			},
		},
		"float stays float": {
			input: `{"n": 42.0}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.Float, got[0].Entries[0].Value.Kind)
				assert.InEpsilon(t, 42.0, got[0].Entries[0].Value.FloatVal, 1e-9)
			},
		},
		"entry order preserved": {
			input: `{"z": 1, "a": 2, "m": 3}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)

				keys := make([]string, 0, 3)
				for _, e := range got[0].Entries {
					keys = append(keys, e.Key)
				}

				assert.Equal(t, []string{"z", "a", "m"}, keys)
			},
		},
		"duplicate keys preserved": {
			input: `{"k": 1, "k": 2}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Len(t, got[0].Entries, 2)
			},
		},
		"trailing garbage rejected": {
			input: `{"a": 1} extra`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
		"invalid json rejected": {
			input: `{a: 1}`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
		"prose rejected": {
			input: `not json at all`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := strategy.NewDirectJSON().Run(tc.input)

			if len(got) > 0 {
				assert.Equal(t, flex.OriginDirectJSON, got[0].Source.Origin)
				assert.Empty(t, got[0].Trace)
			}

			tc.check(t, got)
		})
	}
}
