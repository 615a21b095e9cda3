package tryparse

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/microagents/tryparse/strategy"
)

// Flags holds CLI flag names for parser configuration, allowing callers to
// customize flag names while keeping sensible defaults.
type Flags struct {
	Strategies string
	Fuzzy      string
}

// Config holds CLI flag values for parser configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewParser] to create a [Parser].
type Config struct {
	Flags      Flags
	Registry   map[string]func() strategy.Strategy
	Strategies string
	Fuzzy      bool
}

// NewConfig returns a new [Config] with default flag names and the default
// strategy registry.
func NewConfig() *Config {
	f := Flags{
		Strategies: "strategies",
		Fuzzy:      "fuzzy",
	}

	return &Config{
		Flags:    f,
		Registry: strategy.DefaultRegistry(),
	}
}

// RegisterFlags adds parser flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Strategies, c.Flags.Strategies, "s",
		"direct-json,markdown,yaml,json-fixer,heuristic",
		"comma-separated list of enabled extraction strategies (in priority order)")
	flags.BoolVar(&c.Fuzzy, c.Flags.Fuzzy, true,
		"allow fuzzy field and enum name matching")
}

// RegisterCompletions registers shell completions for parser flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	var names []string

	for name := range c.Registry {
		names = append(names, name)
	}

	slices.Sort(names)

	err := cmd.RegisterFlagCompletionFunc(c.Flags.Strategies,
		cobra.FixedCompletions(names, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Strategies, err)
	}

	return nil
}

// NewParser creates a [Parser] using this [Config].
func (c *Config) NewParser() (*Parser, error) {
	strategies, err := c.parseStrategyNames(c.Strategies)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithFuzzy(c.Fuzzy)}

	if len(strategies) > 0 {
		opts = append(opts, WithStrategies(strategies...))
	}

	return NewParser(opts...), nil
}

// parseStrategyNames parses a comma-separated list of strategy names and
// returns the corresponding instances.
func (c *Config) parseStrategyNames(names string) ([]strategy.Strategy, error) {
	if names == "" {
		return nil, nil
	}

	parts := strings.Split(names, ",")
	strategies := make([]strategy.Strategy, 0, len(parts))

	for _, name := range parts {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		constructor, ok := c.Registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidOption, name)
		}

		strategies = append(strategies, constructor())
	}

	return strategies, nil
}
