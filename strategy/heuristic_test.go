package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/strategy"
)

func TestHeuristic(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		check func(*testing.T, []*flex.Value)
	}{
		"embedded object": {
			input: `The result is {"a": 1, "b": 2} as requested.`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				assert.Zero(t, got[0].Source.Fixes)
				require.NotNil(t, got[0].Span)
				assert.Equal(t, 14, got[0].Span.Start)
			},
		},
		"embedded array": {
			input: `Values: [1, 2, 3] found.`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.Array, got[0].Kind)
			},
		},
		"embedded object needing repair": {
			input: `Take {count: 3,} please.`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, 2, got[0].Source.Fixes)
			},
		},
		"region repaired with full fixer rewrite set": {
			input: `Result: {'status': 'ok'} done.`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				assert.Equal(t, "status", got[0].Entries[0].Key)
				assert.Equal(t, "ok", got[0].Entries[0].Value.StrVal)
				assert.Equal(t, 2, got[0].Source.Fixes)
			},
		},
		"prose pairs": {
			input: "Name: Alice\nAge: 30\nActive: true\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				require.Len(t, got[0].Entries, 3)

				assert.Equal(t, "Name", got[0].Entries[0].Key)
				assert.Equal(t, flex.String, got[0].Entries[0].Value.Kind)
				assert.Equal(t, flex.Int, got[0].Entries[1].Value.Kind)
				assert.Equal(t, int64(30), got[0].Entries[1].Value.IntVal)
				assert.Equal(t, flex.Bool, got[0].Entries[2].Value.Kind)
			},
		},
		"nothing to extract": {
			input: "plain prose with no structure at all",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
		"unbalanced region": {
			input: `broken {"a": 1`,
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := strategy.NewHeuristic().Run(tc.input)

			if len(got) > 0 {
				assert.Equal(t, flex.OriginHeuristic, got[0].Source.Origin)
			}

			tc.check(t, got)
		})
	}
}
