package tryparse

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/microagents/tryparse/coerce"
	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/schema"
	"github.com/microagents/tryparse/strategy"
)

// Parser runs the extraction pipeline: preprocess, run the configured
// strategies, rank the candidate pool, and coerce candidates into a target
// schema in rank order until one fits.
//
// Create instances with [NewParser]. A Parser holds no per-call state and
// is safe for concurrent use.
type Parser struct {
	strategies []strategy.Strategy
	coercer    *coerce.Coercer
	logger     *slog.Logger
	fuzzy      bool
}

// Option configures a [Parser].
type Option func(*Parser)

// WithStrategies replaces the default strategy set. Strategies run in
// priority order regardless of the order given here.
func WithStrategies(strategies ...strategy.Strategy) Option {
	return func(p *Parser) {
		p.strategies = strategies
	}
}

// WithFuzzy toggles fuzzy field and enum matching during coercion.
func WithFuzzy(fuzzy bool) Option {
	return func(p *Parser) {
		p.fuzzy = fuzzy
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a [Parser] with the given options. The defaults are the
// full strategy set and fuzzy matching on.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		strategies: strategy.Defaults(),
		logger:     slog.Default(),
		fuzzy:      true,
	}

	for _, opt := range opts {
		opt(p)
	}

	sort.SliceStable(p.strategies, func(i, j int) bool {
		return p.strategies[i].Priority() < p.strategies[j].Priority()
	})

	p.coercer = coerce.New(coerce.WithFuzzy(p.fuzzy))

	return p
}

// Parse parses input into T with strict name matching: object keys and enum
// variants must match the descriptor exactly, though type coercions still
// apply. The descriptor is derived from T via [schema.For].
func Parse[T any](input string) (T, error) {
	return ParseWithParser[T](input, NewParser(WithFuzzy(false)))
}

// ParseFlexible parses input into T with fuzzy field and enum matching.
func ParseFlexible[T any](input string) (T, error) {
	return ParseWithParser[T](input, NewParser())
}

// ParseWithCandidates parses input into T like [ParseFlexible] and also
// returns the full ranked candidate pool. The pool is returned even when
// parsing fails, so callers can inspect what was considered.
func ParseWithCandidates[T any](input string) (T, []*flex.Value, error) {
	var zero T

	s, err := schema.For[T]()
	if err != nil {
		return zero, nil, err
	}

	out, candidates, err := NewParser().parse(input, s)
	if err != nil {
		return zero, candidates, err
	}

	if err := Decode(out, &zero); err != nil {
		return zero, candidates, err
	}

	return zero, candidates, nil
}

// ParseWithParser parses input into T using an explicitly configured
// [Parser], typically to narrow the strategy set.
func ParseWithParser[T any](input string, p *Parser) (T, error) {
	var zero T

	s, err := schema.For[T]()
	if err != nil {
		return zero, err
	}

	out, err := p.ParseValue(input, s)
	if err != nil {
		return zero, err
	}

	if err := Decode(out, &zero); err != nil {
		return zero, err
	}

	return zero, nil
}

// ParseValue runs the pipeline against a hand-built descriptor and returns
// the coerced tree, for callers whose target shapes (enums, unions) have no
// direct Go type.
func (p *Parser) ParseValue(input string, s *schema.Schema) (*flex.Value, error) {
	out, _, err := p.parse(input, s)

	return out, err
}

// ParseValueCandidates is [Parser.ParseValue] plus the ranked candidate
// pool. The pool is returned even on failure.
func (p *Parser) ParseValueCandidates(input string, s *schema.Schema) (*flex.Value, []*flex.Value, error) {
	return p.parse(input, s)
}

// Candidates runs extraction and ranking only: preprocess, run every
// strategy, and return the pool ordered by ascending score. No coercion is
// attempted.
func (p *Parser) Candidates(input string) ([]*flex.Value, error) {
	candidates, _, err := p.candidates(input)

	return candidates, err
}

func (p *Parser) candidates(input string) ([]*flex.Value, bool, error) {
	if strings.TrimSpace(input) == "" {
		return nil, false, ErrNoInput
	}

	pre, truncated := strategy.Preprocess(input)
	candidates := p.runStrategies(pre)

	if len(candidates) == 0 {
		if truncated {
			return nil, truncated, ErrOverDeepInput
		}

		return nil, truncated, ErrNoCandidates
	}

	flex.Rank(candidates)

	return candidates, truncated, nil
}

func (p *Parser) parse(input string, s *schema.Schema) (*flex.Value, []*flex.Value, error) {
	candidates, truncated, err := p.candidates(input)
	if err != nil {
		return nil, nil, err
	}

	var firstErr error

	for _, cand := range candidates {
		out, err := p.coercer.Coerce(s, cand)
		if err == nil {
			return out, candidates, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	// The surfaced failure belongs to the best-scoring candidate, which is
	// first in rank order.
	if truncated {
		firstErr = fmt.Errorf("%w: %w", ErrOverDeepInput, firstErr)
	}

	return nil, candidates, &ParseError{Err: firstErr, Candidates: candidates}
}

// runStrategies runs every strategy over the shared preprocessed text.
// Strategies are independent and pure, so they run concurrently with the
// results slotted per strategy; scheduling cannot influence pool order.
func (p *Parser) runStrategies(pre string) []*flex.Value {
	results := make([][]*flex.Value, len(p.strategies))

	var wg sync.WaitGroup

	for i, st := range p.strategies {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = st.Run(pre)
		}()
	}

	wg.Wait()

	var candidates []*flex.Value

	for i, r := range results {
		p.logger.Debug("strategy finished",
			slog.String("strategy", p.strategies[i].Name()),
			slog.Int("candidates", len(r)),
		)

		candidates = append(candidates, r...)
	}

	return candidates
}

// Score returns the total cost of a candidate. Lower is better; zero means
// a clean strict parse.
func Score(v *flex.Value) int { return flex.Score(v) }

// Rank stably sorts candidates in place by ascending score.
func Rank(candidates []*flex.Value) { flex.Rank(candidates) }

// Best returns the lowest-cost candidate, or nil for an empty pool.
func Best(candidates []*flex.Value) *flex.Value { return flex.Best(candidates) }
