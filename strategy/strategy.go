// Package strategy implements the extraction strategies that lift raw text
// into candidate [flex.Value] trees, plus the preprocessor they all share.
//
// Strategies are pure and independent: each receives the preprocessed text
// and returns zero or more candidates, never observing another strategy's
// state. A failure to extract produces an empty result, not an error. The
// driver may run strategies serially or concurrently; emission order within
// a strategy is deterministic, so the combined pool is too.
package strategy

import "github.com/microagents/tryparse/flex"

// Static strategy priorities. Lower runs earlier and wins ranking ties.
const (
	PriorityDirectJSON = 1
	PriorityMarkdown   = 2
	PriorityYAML       = 15
	PriorityJSONFixer  = 20
	PriorityHeuristic  = 30
)

// Strategy lifts preprocessed text into candidate values.
type Strategy interface {
	// Name is the stable registry name of the strategy.
	Name() string
	// Priority is the static scheduling priority; lower is earlier.
	Priority() int
	// Run proposes zero or more candidates from the text.
	Run(text string) []*flex.Value
}

// Defaults returns the default strategy set in priority order.
func Defaults() []Strategy {
	return []Strategy{
		NewDirectJSON(),
		NewMarkdown(),
		NewYAML(),
		NewJSONFixer(),
		NewHeuristic(),
	}
}

// DefaultRegistry maps registry names to strategy constructors, for hosts
// that configure the strategy set by name.
func DefaultRegistry() map[string]func() Strategy {
	return map[string]func() Strategy{
		"direct-json": func() Strategy { return NewDirectJSON() },
		"markdown":    func() Strategy { return NewMarkdown() },
		"yaml":        func() Strategy { return NewYAML() },
		"json-fixer":  func() Strategy { return NewJSONFixer() },
		"heuristic":   func() Strategy { return NewHeuristic() },
	}
}
