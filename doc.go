// Package tryparse turns messy, free-form text -- typically the output of a
// large language model -- into typed Go values. The input may be valid
// JSON, JSON wrapped in prose or code fences, JSON with common syntactic
// defects, YAML, or plain prose from which structured data must be
// recovered. The output is a value of a caller-supplied schema, plus,
// optionally, the ranked set of alternative parses considered and the
// transformations that produced each one.
//
// The engine is best-effort on ambiguous input: it may choose a parse a
// human would have rejected. What it guarantees instead is stable ranking:
// for a given input and configuration, two parse calls always produce the
// same value and the same transformation log.
//
// # Pipeline
//
// A parse call moves through five phases:
//
//  1. Preprocess: the raw text is normalised once ([strategy.Preprocess]).
//     A leading byte-order mark and zero-width characters are stripped,
//     doubled backslashes inside string literals are collapsed, and
//     bracket nesting beyond 50 levels is truncated with synthetic
//     closers. Preprocessing never fails.
//
//  2. Extract: every configured strategy runs over the shared preprocessed
//     text and proposes zero or more candidate [flex.Value] trees, each
//     tagged with its provenance. The default set, in priority order:
//     strict JSON over the whole text, fenced code blocks in markdown,
//     YAML, a counted JSON repair pass, and a last-resort heuristic that
//     hunts for balanced regions or "Key: value" prose lines. Strategies
//     are independent and pure; one strategy's failure never blocks
//     another, and the driver may run them concurrently.
//
//  3. Rank: candidates are ordered by total cost ([flex.Score]): a base
//     price per origin, a surcharge per repair, a price per recorded
//     transformation, and a confidence penalty. Ties break by strategy
//     priority, then input order.
//
//  4. Coerce: candidates are fitted to the caller's [schema.Schema] in
//     rank order ([coerce.Coercer]). The engine converts between
//     primitive shapes, wraps bare values into one-element sequences or
//     single-field structs, fuzzy-matches field and enum names, and
//     selects union variants by trying each and keeping the cheapest.
//     Every edit is recorded on the result. The first candidate that fits
//     wins.
//
//  5. Decode: the coerced tree is materialised into the caller's Go value
//     ([Decode]).
//
// # Entry Points
//
// [Parse] is strict: object keys and enum variants must match the
// descriptor exactly, though type coercions (a number spelled as a string,
// a bare value where a list belongs) still apply. [ParseFlexible] admits
// fuzzy matching. [ParseWithCandidates] additionally returns the ranked
// pool, and [ParseWithParser] takes an explicitly configured [Parser]. All
// four derive the descriptor from the Go type via [schema.For].
//
// Targets with no direct Go shape -- enums and unions built by hand, or
// descriptors converted from a JSON Schema document with
// [schema.FromJSONSchema] -- use [Parser.ParseValue], which returns the
// coerced tree itself.
//
// # Errors
//
// The package defines sentinel errors for use with [errors.Is]:
//
//   - [ErrNoInput]: the input is empty or whitespace-only.
//   - [ErrNoCandidates]: every strategy produced nothing.
//   - [ErrOverDeepInput]: the preprocessor truncated the input at the
//     depth cap and nothing succeeded afterwards.
//   - [ErrInvalidOption]: a configuration value is invalid, such as an
//     unknown strategy name in [Config.NewParser].
//
// When candidates exist but none coerces, the call fails with a
// [*ParseError] wrapping the best-scoring candidate's coercion failure
// (a [coerce.CoercionError] or [coerce.MissingFieldError]) and carrying
// the full ranked pool.
//
// # Basic Usage
//
//	type Task struct {
//		Name string `json:"name"`
//		Age  int    `json:"age"`
//	}
//
//	task, err := tryparse.ParseFlexible[Task]("```json\n{ name: \"Alice\", age: \"30\" }\n```")
//
// # With a Hand-Built Descriptor
//
//	status := schema.Enum("Status",
//		schema.Unit("InProgress"),
//		schema.Unit("Completed"),
//		schema.Unit("Cancelled"),
//	)
//
//	p := tryparse.NewParser()
//	v, err := p.ParseValue(`"in-progress"`, status)
//	// v is the string "InProgress" with an enum-fuzzy-matched record.
//
// # CLI Integration
//
// [Config] bridges CLI flags to the library, following the RegisterFlags /
// RegisterCompletions / NewParser pattern. The [Config.Registry] field maps
// strategy names (as used in the --strategies flag) to constructors.
package tryparse
