package strategy

import "github.com/microagents/tryparse/flex"

// DirectJSON attempts to parse the entire text as strict JSON. Highest
// priority: a clean parse beats every other extraction.
type DirectJSON struct{}

// NewDirectJSON creates the strict JSON strategy.
func NewDirectJSON() *DirectJSON { return &DirectJSON{} }

// Name implements [Strategy].
func (*DirectJSON) Name() string { return "direct-json" }

// Priority implements [Strategy].
func (*DirectJSON) Priority() int { return PriorityDirectJSON }

// Run implements [Strategy]. It emits one candidate when the whole text is
// valid JSON, and nothing otherwise.
func (*DirectJSON) Run(text string) []*flex.Value {
	v, err := parseStrictJSON(text, flex.Source{Origin: flex.OriginDirectJSON})
	if err != nil {
		return nil
	}

	return []*flex.Value{v}
}
