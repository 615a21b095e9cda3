package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/strategy"
)

func TestMarkdown(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		check func(*testing.T, []*flex.Value)
	}{
		"tagged json block": {
			input: "Here is the data:\n```json\n{\"a\": 1}\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.OriginMarkdown, got[0].Source.Origin)
				assert.Zero(t, got[0].Source.Fixes)
				assert.Equal(t, int64(1), got[0].Entries[0].Value.IntVal)
			},
		},
		"untagged block": {
			input: "```\n{\"a\": 1}\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
			},
		},
		"tilde fences": {
			input: "~~~json\n{\"a\": 1}\n~~~\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
			},
		},
		"block needing repair counts fixes": {
			input: "```json\n{ name: \"Alice\", age: \"30\", }\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				assert.Equal(t, flex.OriginMarkdown, got[0].Source.Origin)
				assert.Equal(t, 3, got[0].Source.Fixes)
			},
		},
		"encoded document in repaired block unwrapped": {
			input: "```json\n'{\"a\": 1}'\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				assert.Equal(t, int64(1), got[0].Entries[0].Value.IntVal)
				assert.Equal(t, flex.OriginMarkdown, got[0].Source.Origin)

				// One fix for re-quoting, one for the unwrap.
				assert.Equal(t, 2, got[0].Source.Fixes)
			},
		},
		"yaml block": {
			input: "```yaml\nname: Alice\nage: 30\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 1)
				require.Equal(t, flex.Object, got[0].Kind)
				assert.Equal(t, "name", got[0].Entries[0].Key)
			},
		},
		"json tag ranks before other tags": {
			input: "```yaml\nname: Alice\n```\n\n```json\n{\"name\": \"Bob\"}\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 2)
				assert.Equal(t, "Bob", got[0].Entries[0].Value.StrVal)
				assert.Equal(t, "Alice", got[1].Entries[0].Value.StrVal)
			},
		},
		"earlier block ranks first at same tag": {
			input: "```json\n{\"n\": 1}\n```\n\n```json\n{\"n\": 2}\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				require.Len(t, got, 2)
				assert.Equal(t, int64(1), got[0].Entries[0].Value.IntVal)
				assert.Equal(t, int64(2), got[1].Entries[0].Value.IntVal)
			},
		},
		"no fences": {
			input: "just some prose with no code",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
		"unparseable block": {
			input: "```\n!!! not parseable as anything structured ((((\n```\n",
			check: func(t *testing.T, got []*flex.Value) {
				t.Helper()
				assert.Empty(t, got)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tc.check(t, strategy.NewMarkdown().Run(tc.input))
		})
	}
}
