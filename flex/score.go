package flex

import (
	"math"
	"sort"
)

// Base score contributed by each origin. Lower is better; a clean strict
// JSON parse costs nothing.
var originBase = map[Origin]int{
	OriginDirectJSON:  0,
	OriginMarkdown:    10,
	OriginYAML:        15,
	OriginJSONFixer:   20,
	OriginHeuristic:   50,
	OriginSynthesized: 50,
}

// fixCost is the per-repair surcharge on top of the origin base.
const fixCost = 5

// Cost of each transformation kind.
var transformCost = map[TransformKind]int{
	StringToNumber:   2,
	StringToBool:     2,
	NumberToString:   2,
	FloatToInt:       3,
	SingleToArray:    5,
	FieldRenamed:     4,
	DefaultInserted:  50,
	EnumFuzzyMatched: 3,
	KeyImplied:       4,
	VariantSelected:  2,
}

// decayPerTransform is the confidence multiplier applied for every recorded
// transformation.
const decayPerTransform = 0.95

// Score assigns a total cost to a value: the origin base, the fixer
// surcharge, the summed cost of every recorded transformation in the tree,
// and a penalty for confidence lost beyond the standard per-transformation
// decay. Lower is better; zero means a clean strict parse. Score is a pure
// function of the value.
func Score(v *Value) int {
	if v == nil {
		return 0
	}

	total := originBase[v.Source.Origin] + fixCost*v.Source.Fixes

	transforms := 0
	confidence := 1.0

	walk(v, func(n *Value) {
		for _, t := range n.Trace {
			total += transformCost[t.Kind]
		}

		transforms += len(n.Trace)
		confidence = math.Min(confidence, n.Confidence)
	})

	// Transformations are charged once, through their explicit costs above.
	// The confidence penalty only covers loss a strategy reported on its
	// own, so the standard decay is factored back out before pricing it.
	expected := math.Pow(decayPerTransform, float64(transforms))
	if residual := confidence / expected; residual < 1 {
		total += int(math.Floor((1 - residual) * 100))
	}

	return total
}

// Priority returns the scheduling priority of the strategy that produced the
// value. Lower runs earlier and wins score ties.
func Priority(v *Value) int {
	switch v.Source.Origin {
	case OriginDirectJSON:
		return 1
	case OriginMarkdown:
		return 2
	case OriginYAML:
		return 15
	case OriginJSONFixer:
		return 20
	case OriginHeuristic:
		return 30
	case OriginSynthesized:
		return 100
	}

	return 100
}

// Rank sorts candidates in place by ascending score, breaking ties by
// strategy priority and then by input order. The sort is stable, so two
// calls over the same pool always agree.
func Rank(candidates []*Value) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := Score(candidates[i]), Score(candidates[j])
		if si != sj {
			return si < sj
		}

		return Priority(candidates[i]) < Priority(candidates[j])
	})
}

// Best returns the lowest-cost candidate, or nil for an empty pool.
func Best(candidates []*Value) *Value {
	var (
		best      *Value
		bestScore int
		bestPrio  int
	)

	for _, c := range candidates {
		s, p := Score(c), Priority(c)
		if best == nil || s < bestScore || (s == bestScore && p < bestPrio) {
			best, bestScore, bestPrio = c, s, p
		}
	}

	return best
}

func walk(v *Value, fn func(*Value)) {
	if v == nil {
		return
	}

	fn(v)

	for _, item := range v.Items {
		walk(item, fn)
	}

	for _, e := range v.Entries {
		walk(e.Value, fn)
	}
}
