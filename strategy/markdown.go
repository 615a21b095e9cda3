package strategy

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/microagents/tryparse/flex"
)

// markdown is the process-wide CommonMark parser shared across calls. It is
// read-only after construction and safe for concurrent use.
var markdown = goldmark.New()

// Markdown scans the text for fenced code blocks and tries each block as
// strict JSON, then repaired JSON, then YAML. All successful blocks become
// candidates, emitted in block-local rank order: a "json" language tag beats
// an untagged block beats any other tag, earlier blocks beat later ones,
// and the larger block wins remaining ties.
type Markdown struct{}

// NewMarkdown creates the fenced-code-block strategy.
func NewMarkdown() *Markdown { return &Markdown{} }

// Name implements [Strategy].
func (*Markdown) Name() string { return "markdown" }

// Priority implements [Strategy].
func (*Markdown) Priority() int { return PriorityMarkdown }

// Run implements [Strategy].
func (*Markdown) Run(input string) []*flex.Value {
	blocks := fencedBlocks(input)
	if len(blocks) == 0 {
		return nil
	}

	type ranked struct {
		value *flex.Value
		block codeBlock
	}

	var successes []ranked

	for _, b := range blocks {
		if v := parseBlock(b.body); v != nil {
			successes = append(successes, ranked{value: v, block: b})
		}
	}

	sort.SliceStable(successes, func(i, j int) bool {
		bi, bj := successes[i].block, successes[j].block

		if ri, rj := langRank(bi.lang), langRank(bj.lang); ri != rj {
			return ri < rj
		}

		if bi.index != bj.index {
			return bi.index < bj.index
		}

		return len(bi.body) > len(bj.body)
	})

	out := make([]*flex.Value, len(successes))
	for i, s := range successes {
		out[i] = s.value
	}

	return out
}

// parseBlock lifts one block body, or returns nil when nothing parses.
func parseBlock(body string) *flex.Value {
	if v, err := parseStrictJSON(body, flex.Source{Origin: flex.OriginMarkdown}); err == nil {
		return v
	}

	if v, err := repairAndParse(body, flex.OriginMarkdown); err == nil {
		return v
	}

	if v, err := parseYAML(body, flex.Source{Origin: flex.OriginMarkdown}); err == nil {
		return v
	}

	return nil
}

func langRank(lang string) int {
	switch lang {
	case "json", "jsonc", "json5":
		return 0
	case "":
		return 1
	default:
		return 2
	}
}

type codeBlock struct {
	lang  string
	body  string
	index int
}

// fencedBlocks extracts every fenced code block in document order.
func fencedBlocks(input string) []codeBlock {
	src := []byte(input)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []codeBlock

	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}

		fcb, ok := n.(*gast.FencedCodeBlock)
		if !ok {
			return gast.WalkContinue, nil
		}

		var sb strings.Builder

		lines := fcb.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}

		lang := ""
		if l := fcb.Language(src); l != nil {
			lang = strings.ToLower(string(l))
		}

		blocks = append(blocks, codeBlock{
			lang:  lang,
			body:  sb.String(),
			index: len(blocks),
		})

		return gast.WalkContinue, nil
	})

	return blocks
}
