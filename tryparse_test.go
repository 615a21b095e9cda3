package tryparse_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microagents/tryparse"
	"github.com/microagents/tryparse/coerce"
	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/schema"
	"github.com/microagents/tryparse/strategy"
)

func TestStringCoercions(t *testing.T) {
	t.Parallel()

	type Payload struct {
		Count  int64    `json:"count"`
		Price  float64  `json:"price"`
		Active bool     `json:"active"`
		Tags   []string `json:"tags"`
	}

	input := `{"count": "42", "price": "3.14", "active": "true", "tags": "tag"}`

	got, err := tryparse.Parse[Payload](input)
	require.NoError(t, err)
	assert.Equal(t, Payload{Count: 42, Price: 3.14, Active: true, Tags: []string{"tag"}}, got)

	// Inspect the coerced tree for provenance and cost.
	s, err := schema.For[Payload]()
	require.NoError(t, err)

	out, err := tryparse.NewParser(tryparse.WithFuzzy(false)).ParseValue(input, s)
	require.NoError(t, err)

	assert.Equal(t, flex.OriginDirectJSON, out.Source.Origin)
	assert.Equal(t, []flex.TransformKind{
		flex.StringToNumber, flex.StringToNumber, flex.StringToBool, flex.SingleToArray,
	}, out.TraceKinds())
	assert.Equal(t, 11, tryparse.Score(out))
}

func TestMarkdownFencedBlock(t *testing.T) {
	t.Parallel()

	type Person struct {
		Name string `json:"name"`
		Age  uint32 `json:"age"`
	}

	input := "Here's your data:\n```json\n{ name: \"Alice\", age: \"30\", }\n```\n"

	got, candidates, err := tryparse.ParseWithCandidates[Person](input)
	require.NoError(t, err)
	assert.Equal(t, Person{Name: "Alice", Age: 30}, got)

	require.NotEmpty(t, candidates)
	assert.Equal(t, flex.OriginMarkdown, candidates[0].Source.Origin)
	assert.Equal(t, 3, candidates[0].Source.Fixes)
}

func TestEnumFuzzyEndToEnd(t *testing.T) {
	t.Parallel()

	status := schema.Enum("Status",
		schema.Unit("InProgress"),
		schema.Unit("Completed"),
		schema.Unit("Cancelled"),
	)

	out, err := tryparse.NewParser().ParseValue(`"in-progress"`, status)
	require.NoError(t, err)
	assert.Equal(t, "InProgress", out.StrVal)
	assert.Equal(t, []flex.TransformKind{flex.EnumFuzzyMatched}, out.TraceKinds())
}

func TestUnionEndToEnd(t *testing.T) {
	t.Parallel()

	union := schema.Union("Payload",
		schema.Newtype("Number", schema.I64()),
		schema.Newtype("Text", schema.String()),
		schema.Newtype("List", schema.Seq(schema.String())),
	)

	tcs := map[string]struct {
		input string
		want  string
	}{
		"number": {input: `42`, want: "Number"},
		"text":   {input: `"hello"`, want: "Text"},
		"list":   {input: `["a", "b"]`, want: "List"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := tryparse.NewParser().ParseValue(tc.input, union)
			require.NoError(t, err)
			require.Equal(t, flex.Object, out.Kind)
			assert.Equal(t, tc.want, out.Entries[0].Key)

			kinds := out.TraceKinds()
			require.NotEmpty(t, kinds)
			assert.Equal(t, flex.VariantSelected, kinds[len(kinds)-1])
		})
	}
}

func TestImpliedKeyEndToEnd(t *testing.T) {
	t.Parallel()

	type Wrapper struct {
		Data string `json:"data" tryparse:"single"`
	}

	got, err := tryparse.ParseFlexible[Wrapper]("hello world")
	require.NoError(t, err)
	assert.Equal(t, Wrapper{Data: "hello world"}, got)

	s, err := schema.For[Wrapper]()
	require.NoError(t, err)

	out, err := tryparse.NewParser().ParseValue("hello world", s)
	require.NoError(t, err)
	assert.Equal(t, []flex.TransformKind{flex.KeyImplied}, out.TraceKinds())
}

func TestFuzzyConfigStruct(t *testing.T) {
	t.Parallel()

	type Config struct {
		APIKey     string `json:"api_key"`
		MaxRetries int64  `json:"max_retries"`
		TimeoutMs  *int64 `json:"timeout_ms"`
		Status     string `json:"status" tryparse:"enum=Enabled|Disabled"`
	}

	input := `{"apiKey":"s","maxRetries":"3","status":"enabled"}`

	got, err := tryparse.ParseFlexible[Config](input)
	require.NoError(t, err)

	assert.Equal(t, "s", got.APIKey)
	assert.Equal(t, int64(3), got.MaxRetries)
	assert.Nil(t, got.TimeoutMs)
	assert.Equal(t, "Enabled", got.Status)

	s, err := schema.For[Config]()
	require.NoError(t, err)

	out, err := tryparse.NewParser().ParseValue(input, s)
	require.NoError(t, err)

	counts := map[flex.TransformKind]int{}
	for _, kind := range out.TraceKinds() {
		counts[kind]++
	}

	assert.Equal(t, map[flex.TransformKind]int{
		flex.FieldRenamed:     2,
		flex.StringToNumber:   1,
		flex.EnumFuzzyMatched: 1,
	}, counts)
}

func TestStrictJSONFastPath(t *testing.T) {
	t.Parallel()

	type Person struct {
		Name string `json:"name"`
		Age  int64  `json:"age"`
	}

	s, err := schema.For[Person]()
	require.NoError(t, err)

	out, err := tryparse.NewParser(tryparse.WithFuzzy(false)).
		ParseValue(`{"name": "n", "age": 1}`, s)
	require.NoError(t, err)

	assert.Equal(t, flex.OriginDirectJSON, out.Source.Origin)
	assert.Empty(t, out.Trace)
	assert.Zero(t, tryparse.Score(out))
	assert.InEpsilon(t, 1.0, out.Confidence, 1e-9)
}

func TestRoundTripLaws(t *testing.T) {
	t.Parallel()

	got, err := tryparse.Parse[string](`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	type Exact struct {
		A int64   `json:"a"`
		B string  `json:"b"`
		C float64 `json:"c"`
	}

	want := Exact{A: 1, B: "x", C: 2.5}

	back, err := tryparse.Parse[Exact](`{"a": 1, "b": "x", "c": 2.5}`)
	require.NoError(t, err)
	assert.Equal(t, want, back)
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	type Person struct {
		Name string `json:"name"`
		Age  int64  `json:"age"`
	}

	input := "Some text\n```\n{ name: \"A\", age: 1 }\n```\nAge: 2\nName: B\n"

	first, firstPool, err := tryparse.ParseWithCandidates[Person](input)
	require.NoError(t, err)

	for range 5 {
		got, pool, err := tryparse.ParseWithCandidates[Person](input)
		require.NoError(t, err)
		assert.Equal(t, first, got)

		require.Len(t, pool, len(firstPool))

		for i := range pool {
			assert.True(t, reflect.DeepEqual(firstPool[i], pool[i]),
				"candidate %d differs between runs", i)
		}
	}
}

func TestSerialAndParallelAgree(t *testing.T) {
	t.Parallel()

	// Running the full set against a single strategy at a time and
	// concatenating in priority order reproduces the combined pool.
	input := "```json\n{\"a\": 1}\n```\n"

	full := tryparse.NewParser()
	pool, err := full.Candidates(input)
	require.NoError(t, err)

	var serial []*flex.Value

	pre, _ := strategy.Preprocess(input)
	for _, st := range strategy.Defaults() {
		serial = append(serial, st.Run(pre)...)
	}

	tryparse.Rank(serial)

	require.Len(t, pool, len(serial))

	for i := range pool {
		assert.True(t, reflect.DeepEqual(pool[i], serial[i]))
	}
}

func TestTransformationPathsResolve(t *testing.T) {
	t.Parallel()

	type Payload struct {
		Count int64    `json:"count"`
		Tags  []string `json:"tags"`
	}

	s, err := schema.For[Payload]()
	require.NoError(t, err)

	out, err := tryparse.NewParser().
		ParseValue(`{"Count": "42", "tags": "t"}`, s)
	require.NoError(t, err)
	require.NotEmpty(t, out.Trace)

	for _, tr := range out.Trace {
		assert.NotNil(t, out.At(tr.Path), "path %s of %s does not resolve", tr.Path, tr.Kind)
	}
}

func TestErrNoInput(t *testing.T) {
	t.Parallel()

	_, err := tryparse.Parse[string]("")
	assert.ErrorIs(t, err, tryparse.ErrNoInput)

	_, err = tryparse.Parse[string]("   \n\t ")
	assert.ErrorIs(t, err, tryparse.ErrNoInput)
}

func TestErrNoCandidates(t *testing.T) {
	t.Parallel()

	_, err := tryparse.Parse[string]("@@@@")
	assert.ErrorIs(t, err, tryparse.ErrNoCandidates)
}

func TestParseErrorCarriesCandidates(t *testing.T) {
	t.Parallel()

	type Strict struct {
		Needed int64 `json:"needed"`
	}

	_, err := tryparse.Parse[Strict](`{"other": 1}`)
	require.Error(t, err)

	var pe *tryparse.ParseError

	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Candidates)
	assert.ErrorIs(t, err, coerce.ErrMissingField)
}

func TestParseWithParserNarrowsStrategies(t *testing.T) {
	t.Parallel()

	type Person struct {
		Name string `json:"name"`
	}

	input := "```json\n{\"name\": \"A\"}\n```\n"

	p := tryparse.NewParser(
		tryparse.WithStrategies(strategy.NewDirectJSON()),
		tryparse.WithFuzzy(false),
	)

	_, err := tryparse.ParseWithParser[Person](input, p)
	assert.ErrorIs(t, err, tryparse.ErrNoCandidates)

	got, err := tryparse.ParseWithParser[Person](input, tryparse.NewParser())
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestUnionReorderStability(t *testing.T) {
	t.Parallel()

	// Reordering the variants after the winning one must not change the
	// selection.
	base := schema.Union("P",
		schema.Newtype("Number", schema.I64()),
		schema.Newtype("Text", schema.String()),
		schema.Newtype("List", schema.Seq(schema.String())),
	)
	reordered := schema.Union("P",
		schema.Newtype("Number", schema.I64()),
		schema.Newtype("List", schema.Seq(schema.String())),
		schema.Newtype("Text", schema.String()),
	)

	p := tryparse.NewParser()

	a, err := p.ParseValue(`42`, base)
	require.NoError(t, err)

	b, err := p.ParseValue(`42`, reordered)
	require.NoError(t, err)

	assert.Equal(t, a.Entries[0].Key, b.Entries[0].Key)
}
