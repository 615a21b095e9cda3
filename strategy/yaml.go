package strategy

import (
	"errors"
	"math"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/microagents/tryparse/flex"
)

var errUnsupportedNode = errors.New("unsupported yaml node")

// YAML parses the whole text as a YAML document. Mappings become objects
// preserving source order, sequences become arrays, and scalars keep the
// type their YAML tag implies.
type YAML struct{}

// NewYAML creates the YAML strategy.
func NewYAML() *YAML { return &YAML{} }

// Name implements [Strategy].
func (*YAML) Name() string { return "yaml" }

// Priority implements [Strategy].
func (*YAML) Priority() int { return PriorityYAML }

// Run implements [Strategy]. Only the first document of a multi-document
// stream is considered.
func (*YAML) Run(text string) []*flex.Value {
	v, err := parseYAML(text, flex.Source{Origin: flex.OriginYAML})
	if err != nil {
		return nil
	}

	return []*flex.Value{v}
}

// parseYAML converts the first YAML document in text to a [flex.Value].
func parseYAML(text string, src flex.Source) (*flex.Value, error) {
	file, err := parser.ParseBytes([]byte(text), 0)
	if err != nil {
		return nil, err
	}

	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, errUnsupportedNode
	}

	anchors := collectAnchors(file.Docs[0].Body)

	return yamlNode(file.Docs[0].Body, src, anchors)
}

func yamlNode(node ast.Node, src flex.Source, anchors map[string]ast.Node) (*flex.Value, error) {
	node = resolveAlias(node, anchors)
	node = unwrapYAMLNode(node)

	if node == nil {
		return flex.NewNull(src), nil
	}

	switch n := node.(type) {
	case *ast.NullNode:
		return flex.NewNull(src), nil
	case *ast.BoolNode:
		return flex.NewBool(n.Value, src), nil
	case *ast.IntegerNode:
		return integerValue(n, src), nil
	case *ast.FloatNode:
		return flex.NewFloat(n.Value, src), nil
	case *ast.InfinityNode:
		return flex.NewFloat(n.Value, src), nil
	case *ast.NanNode:
		return flex.NewFloat(math.NaN(), src), nil
	case *ast.StringNode:
		return flex.NewString(n.Value, src), nil
	case *ast.LiteralNode:
		return flex.NewString(n.Value.Value, src), nil
	case *ast.SequenceNode:
		items := make([]*flex.Value, 0, len(n.Values))

		for _, elem := range n.Values {
			item, err := yamlNode(elem, src, anchors)
			if err != nil {
				return nil, err
			}

			items = append(items, item)
		}

		return flex.NewArray(items, src), nil
	case *ast.MappingNode:
		return yamlMapping(n.Values, src, anchors)
	case *ast.MappingValueNode:
		return yamlMapping([]*ast.MappingValueNode{n}, src, anchors)
	}

	return nil, errUnsupportedNode
}

func yamlMapping(values []*ast.MappingValueNode, src flex.Source, anchors map[string]ast.Node) (*flex.Value, error) {
	// A key given explicitly in the mapping always beats one brought in by
	// a merge key, regardless of where the merge key appears.
	explicit := make(map[string]bool, len(values))

	for _, mvn := range values {
		if _, ok := mvn.Key.(*ast.MergeKeyNode); !ok {
			explicit[yamlKey(mvn.Key)] = true
		}
	}

	seen := make(map[string]bool, len(values))

	var entries []flex.Entry

	for _, mvn := range values {
		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			merged, err := yamlNode(mvn.Value, src, anchors)
			if err != nil {
				return nil, err
			}

			entries = spliceMerged(entries, merged, explicit, seen)

			continue
		}

		val, err := yamlNode(mvn.Value, src, anchors)
		if err != nil {
			return nil, err
		}

		entries = append(entries, flex.Entry{Key: yamlKey(mvn.Key), Value: val})
	}

	return flex.NewObject(entries, src), nil
}

// spliceMerged inserts a merge key's entries at the merge position,
// skipping keys the mapping defines explicitly and keys an earlier merge
// already provided. A sequence merge (<<: [*a, *b]) splices each mapping
// in order, earlier sources winning.
func spliceMerged(entries []flex.Entry, merged *flex.Value, explicit, seen map[string]bool) []flex.Entry {
	sources := []*flex.Value{merged}
	if merged.Kind == flex.Array {
		sources = merged.Items
	}

	for _, source := range sources {
		if source.Kind != flex.Object {
			continue
		}

		for _, e := range source.Entries {
			if explicit[e.Key] || seen[e.Key] {
				continue
			}

			seen[e.Key] = true

			entries = append(entries, e)
		}
	}

	return entries
}

func yamlKey(key ast.Node) string {
	if sn, ok := key.(*ast.StringNode); ok {
		return sn.Value
	}

	return key.String()
}

func integerValue(n *ast.IntegerNode, src flex.Source) *flex.Value {
	switch v := n.Value.(type) {
	case int64:
		return flex.NewInt(v, src)
	case uint64:
		if v <= math.MaxInt64 {
			return flex.NewInt(int64(v), src)
		}

		return flex.NewFloat(float64(v), src)
	case int:
		return flex.NewInt(int64(v), src)
	}

	return flex.NewInt(0, src)
}

// unwrapYAMLNode resolves tag and anchor wrappers to the underlying value.
func unwrapYAMLNode(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value
		case *ast.AnchorNode:
			node = n.Value
		default:
			return node
		}
	}
}

// collectAnchors walks the AST and records every anchor definition so
// aliases can be resolved during conversion.
func collectAnchors(node ast.Node) map[string]ast.Node {
	anchors := make(map[string]ast.Node)

	ast.Walk(&anchorCollector{anchors: anchors}, node)

	return anchors
}

type anchorCollector struct {
	anchors map[string]ast.Node
}

// Visit implements the [ast.Visitor] interface.
func (c *anchorCollector) Visit(node ast.Node) ast.Visitor {
	if anchor, ok := node.(*ast.AnchorNode); ok {
		c.anchors[anchor.Name.String()] = anchor.Value
	}

	return c
}

func resolveAlias(node ast.Node, anchors map[string]ast.Node) ast.Node {
	alias, ok := node.(*ast.AliasNode)
	if !ok {
		return node
	}

	if resolved, found := anchors[alias.Value.String()]; found {
		return resolved
	}

	// Unresolvable alias treated as null.
	return nil
}
