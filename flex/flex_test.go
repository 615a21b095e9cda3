package flex_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse/flex"
)

func src() flex.Source {
	return flex.Source{Origin: flex.OriginDirectJSON}
}

func sampleTree() *flex.Value {
	return flex.NewObject([]flex.Entry{
		{Key: "name", Value: flex.NewString("alice", src())},
		{Key: "tags", Value: flex.NewArray([]*flex.Value{
			flex.NewString("a", src()),
			flex.NewInt(2, src()),
		}, src())},
		{Key: "nested", Value: flex.NewObject([]flex.Entry{
			{Key: "ok", Value: flex.NewBool(true, src())},
		}, src())},
	}, src())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := sampleTree()
	clone := orig.Clone()

	require.True(t, orig.Equal(clone))

	clone.Entries[0].Value.StrVal = "bob"
	clone.Record(flex.Transformation{Kind: flex.StringToNumber, Path: "$"})

	assert.Equal(t, "alice", orig.Entries[0].Value.StrVal)
	assert.Empty(t, orig.Trace)
	assert.InEpsilon(t, 1.0, orig.Confidence, 1e-9)
}

func TestRecordDecaysConfidence(t *testing.T) {
	t.Parallel()

	v := flex.NewString("x", src())

	v.Record(flex.Transformation{Kind: flex.StringToNumber, Path: "$"})
	v.Record(flex.Transformation{Kind: flex.StringToBool, Path: "$"})

	assert.InEpsilon(t, 0.95*0.95, v.Confidence, 1e-9)
	assert.Equal(t,
		[]flex.TransformKind{flex.StringToNumber, flex.StringToBool},
		v.TraceKinds(),
	)
}

func TestAt(t *testing.T) {
	t.Parallel()

	root := sampleTree()

	tcs := map[string]struct {
		path string
		want func(*flex.Value) bool
	}{
		"root": {
			path: "$",
			want: func(v *flex.Value) bool { return v == root },
		},
		"field": {
			path: "$.name",
			want: func(v *flex.Value) bool { return v != nil && v.StrVal == "alice" },
		},
		"array index": {
			path: "$.tags[1]",
			want: func(v *flex.Value) bool { return v != nil && v.IntVal == 2 },
		},
		"nested field": {
			path: "$.nested.ok",
			want: func(v *flex.Value) bool { return v != nil && v.BoolVal },
		},
		"missing field": {
			path: "$.absent",
			want: func(v *flex.Value) bool { return v == nil },
		},
		"index out of range": {
			path: "$.tags[9]",
			want: func(v *flex.Value) bool { return v == nil },
		},
		"no root marker": {
			path: "name",
			want: func(v *flex.Value) bool { return v == nil },
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.True(t, tc.want(root.At(tc.path)))
		})
	}
}

func TestAtDuplicateKeysFirstWins(t *testing.T) {
	t.Parallel()

	v := flex.NewObject([]flex.Entry{
		{Key: "k", Value: flex.NewInt(1, src())},
		{Key: "k", Value: flex.NewInt(2, src())},
	}, src())

	got := v.At("$.k")
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.IntVal)
}

func TestMarshalJSONPreservesOrder(t *testing.T) {
	t.Parallel()

	v := flex.NewObject([]flex.Entry{
		{Key: "z", Value: flex.NewInt(1, src())},
		{Key: "a", Value: flex.NewFloat(2.5, src())},
		{Key: "z", Value: flex.NewString("dup", src())},
	}, src())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2.5,"z":"dup"}`, string(out))
}

func TestSourceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "direct-json", flex.Source{Origin: flex.OriginDirectJSON}.String())
	assert.Equal(t, "json-fixer{3}", flex.Source{Origin: flex.OriginJSONFixer, Fixes: 3}.String())
}
