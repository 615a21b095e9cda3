// Package main provides a host CLI for the tryparse library: it reads
// messy text from a file or stdin, optionally coerces it against a JSON
// Schema document, and prints the result plus the ranked candidate pool.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/microagents/tryparse"
	"github.com/microagents/tryparse/flex"
	"github.com/microagents/tryparse/log"
	"github.com/microagents/tryparse/schema"
	"github.com/microagents/tryparse/version"
)

func main() {
	cfg := tryparse.NewConfig()
	logCfg := log.NewConfig()

	var (
		schemaPath     string
		showCandidates bool
		indent         int
	)

	rootCmd := &cobra.Command{
		Use:   "tryparse [flags] <file>",
		Short: "Parse messy LLM output into structured values",
		Long: `tryparse extracts structured data from messy, free-form text: raw JSON,
JSON in code fences, JSON with syntactic defects, YAML, or prose. Given a
JSON Schema document it coerces the best extraction into that shape; without
one it prints the best-ranked extraction as-is. Use - to read stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version.String(),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, err := logCfg.NewLogger(os.Stderr)
			if err != nil {
				return err
			}

			slog.SetDefault(logger)

			return run(cfg, args[0], schemaPath, showCandidates, indent)
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())
	logCfg.RegisterFlags(rootCmd.Flags())

	rootCmd.Flags().StringVar(&schemaPath, "schema", "",
		"JSON Schema document (json or yaml) describing the target shape")
	rootCmd.Flags().BoolVar(&showCandidates, "candidates", false,
		"print the ranked candidate pool to stderr")
	rootCmd.Flags().IntVar(&indent, "indent", 2,
		"JSON indentation spaces")

	if err := cfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := logCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *tryparse.Config, inputPath, schemaPath string, showCandidates bool, indent int) error {
	input, err := readInput(inputPath)
	if err != nil {
		return err
	}

	parser, err := cfg.NewParser()
	if err != nil {
		return err
	}

	target, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	var (
		result     *flex.Value
		candidates []*flex.Value
	)

	if target != nil {
		result, candidates, err = parser.ParseValueCandidates(input, target)
	} else {
		// Without a target shape, report the best-ranked extraction as-is.
		candidates, err = parser.Candidates(input)
		result = tryparse.Best(candidates)
	}

	if showCandidates {
		printCandidates(candidates)
	}

	if err != nil {
		return err
	}

	return printResult(result, indent)
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	return string(b), nil
}

// loadSchema reads a JSON Schema document and converts it to a descriptor.
// YAML documents are converted to JSON first.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		raw, err = yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("schema yaml: %w", err)
		}
	}

	var js jsonschema.Schema
	if err := json.Unmarshal(raw, &js); err != nil {
		return nil, fmt.Errorf("schema json: %w", err)
	}

	return schema.FromJSONSchema(&js)
}

func printCandidates(candidates []*flex.Value) {
	for i, c := range candidates {
		fmt.Fprintf(os.Stderr, "#%d score=%d source=%s transforms=%d\n",
			i, tryparse.Score(c), c.Source, len(c.Trace))

		for _, t := range c.Trace {
			fmt.Fprintf(os.Stderr, "    %s\n", t)
		}
	}
}

func printResult(result *flex.Value, indent int) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", strings.Repeat(" ", indent)); err != nil {
		return fmt.Errorf("indent result: %w", err)
	}

	fmt.Println(out.String())

	return nil
}
