package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/microagents/tryparse/flex"
)

// JSONFixer applies a deterministic repair pass to almost-JSON text and
// parses the result strictly. Every rewrite is counted; the count feeds the
// scorer's base penalty, so a heavily repaired parse ranks below a clean
// one. The rewrites are idempotent: repairing already-valid JSON applies
// zero fixes.
type JSONFixer struct{}

// NewJSONFixer creates the repair strategy.
func NewJSONFixer() *JSONFixer { return &JSONFixer{} }

// Name implements [Strategy].
func (*JSONFixer) Name() string { return "json-fixer" }

// Priority implements [Strategy].
func (*JSONFixer) Priority() int { return PriorityJSONFixer }

// Run implements [Strategy]. It emits at most one candidate.
func (*JSONFixer) Run(text string) []*flex.Value {
	v, err := repairAndParse(text, flex.OriginJSONFixer)
	if err != nil {
		return nil
	}

	return []*flex.Value{v}
}

// repairAndParse applies the full fixer sequence to text: repair, strict
// parse, and the one-shot unwrap of a JSON-encoded document. The markdown
// and heuristic strategies share it so their "then JSONFixer" fallbacks use
// the same rewrite set as the standalone strategy.
func repairAndParse(text string, origin flex.Origin) (*flex.Value, error) {
	fixed, fixes, err := Repair(text)
	if err != nil {
		return nil, err
	}

	v, err := parseStrictJSON(fixed, flex.Source{Origin: origin, Fixes: fixes})
	if err != nil {
		return nil, err
	}

	return unwrapEncoded(v), nil
}

// unwrapEncoded unwraps a whole-document string that is itself JSON-encoded
// JSON, once. Only container payloads are unwrapped; a quoted scalar is
// taken at face value.
func unwrapEncoded(v *flex.Value) *flex.Value {
	if v.Kind != flex.String {
		return v
	}

	src := v.Source
	src.Fixes++

	inner, err := parseStrictJSON(v.StrVal, src)
	if err != nil || (inner.Kind != flex.Object && inner.Kind != flex.Array) {
		return v
	}

	return inner
}

// Repair rewrites almost-JSON text into strict JSON, returning the repaired
// text and the number of fixes applied. The rewrite set is closed: trailing
// and missing separator commas, unquoted keys, single/backtick/smart-quoted
// strings, unclosed brackets, comments, hex integer literals, raw newlines
// in strings, and function-valued properties. Text whose defects fall
// outside that set fails with an error.
func Repair(text string) (string, int, error) {
	r := &repairer{scan: newScanner(text)}

	var sb strings.Builder

	sb.Grow(len(text))

	if err := r.value(&sb); err != nil {
		return "", 0, err
	}

	tok, err := r.scan.next()
	if err != nil {
		return "", 0, err
	}

	if tok.kind != tokEOF {
		return "", 0, errTrailingContent
	}

	return sb.String(), r.scan.fixes, nil
}

type repairer struct {
	scan *scanner
}

func (r *repairer) value(sb *strings.Builder) error {
	tok, err := r.scan.next()
	if err != nil {
		return err
	}

	switch tok.kind {
	case tokLBrace:
		return r.object(sb)
	case tokLBracket:
		return r.array(sb)
	case tokString:
		sb.WriteString(encodeJSONString(tok.text))
		return nil
	case tokNumber:
		sb.WriteString(tok.text)
		return nil
	case tokIdent:
		switch tok.text {
		case "true", "false", "null":
			sb.WriteString(tok.text)
			return nil
		}

		return fmt.Errorf("unexpected identifier %q", tok.text)
	}

	return fmt.Errorf("unexpected token %v", tok.kind)
}

func (r *repairer) object(sb *strings.Builder) error {
	sb.WriteByte('{')

	members := 0
	sawComma := false

	for {
		tok, err := r.scan.peek()
		if err != nil {
			return err
		}

		switch tok.kind {
		case tokComma:
			r.scan.consume()

			if sawComma || members == 0 {
				// Doubled or leading separator; drop it.
				r.scan.fixes++
			} else {
				sawComma = true
			}

		case tokRBrace:
			r.scan.consume()

			if sawComma {
				r.scan.fixes++ // trailing comma
			}

			sb.WriteByte('}')

			return nil

		case tokEOF:
			r.scan.fixes++ // synthetic closer
			sb.WriteByte('}')

			return nil

		case tokRBracket:
			return errors.New("mismatched ] in object")

		default:
			if members > 0 && !sawComma {
				r.scan.fixes++ // missing separator comma
			}

			emitted, err := r.member(sb, members)
			if err != nil {
				return err
			}

			if emitted {
				members++
			}

			sawComma = false
		}
	}
}

// member parses one key-value pair. It reports false when the member was
// elided (a function-valued property).
func (r *repairer) member(sb *strings.Builder, members int) (bool, error) {
	tok, err := r.scan.next()
	if err != nil {
		return false, err
	}

	var key string

	switch tok.kind {
	case tokString:
		key = tok.text
	case tokIdent, tokNumber:
		key = tok.text
		r.scan.fixes++ // unquoted key
	default:
		return false, fmt.Errorf("unexpected token %v for object key", tok.kind)
	}

	colon, err := r.scan.next()
	if err != nil {
		return false, err
	}

	if colon.kind != tokColon {
		return false, errors.New("missing : after object key")
	}

	next, err := r.scan.peek()
	if err != nil {
		return false, err
	}

	if next.kind == tokIdent && next.text == "function" {
		r.scan.consume()

		if err := r.scan.skipFunctionBody(); err != nil {
			return false, err
		}

		r.scan.fixes++ // function-valued property elided

		// Swallow the separator that belonged to the dropped member.
		if after, err := r.scan.peek(); err == nil && after.kind == tokComma {
			r.scan.consume()
		}

		return false, nil
	}

	var vb strings.Builder

	if err := r.value(&vb); err != nil {
		return false, err
	}

	if members > 0 {
		sb.WriteByte(',')
	}

	sb.WriteString(encodeJSONString(key))
	sb.WriteByte(':')
	sb.WriteString(vb.String())

	return true, nil
}

func (r *repairer) array(sb *strings.Builder) error {
	sb.WriteByte('[')

	elems := 0
	sawComma := false

	for {
		tok, err := r.scan.peek()
		if err != nil {
			return err
		}

		switch tok.kind {
		case tokComma:
			r.scan.consume()

			if sawComma || elems == 0 {
				r.scan.fixes++
			} else {
				sawComma = true
			}

		case tokRBracket:
			r.scan.consume()

			if sawComma {
				r.scan.fixes++ // trailing comma
			}

			sb.WriteByte(']')

			return nil

		case tokEOF:
			r.scan.fixes++ // synthetic closer
			sb.WriteByte(']')

			return nil

		case tokRBrace:
			return errors.New("mismatched } in array")

		default:
			if elems > 0 && !sawComma {
				r.scan.fixes++ // missing separator comma
			}

			var vb strings.Builder

			if err := r.value(&vb); err != nil {
				return err
			}

			if elems > 0 {
				sb.WriteByte(',')
			}

			sb.WriteString(vb.String())
			elems++

			sawComma = false
		}
	}
}

// Token kinds produced by the scanner.
type tokKind uint8

const (
	tokEOF tokKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString // text holds the decoded content
	tokNumber // text holds the normalised literal
	tokIdent
)

type token struct {
	kind tokKind
	text string
}

type scanner struct {
	in     []rune
	pos    int
	fixes  int
	peeked *token
}

func newScanner(text string) *scanner {
	return &scanner{in: []rune(text)}
}

func (s *scanner) next() (token, error) {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil

		return tok, nil
	}

	return s.scanToken()
}

func (s *scanner) peek() (token, error) {
	if s.peeked == nil {
		tok, err := s.scanToken()
		if err != nil {
			return token{}, err
		}

		s.peeked = &tok
	}

	return *s.peeked, nil
}

// consume drops the peeked token. Only valid directly after a peek.
func (s *scanner) consume() {
	s.peeked = nil
}

func (s *scanner) scanToken() (token, error) {
	if err := s.skipSpaceAndComments(); err != nil {
		return token{}, err
	}

	if s.pos >= len(s.in) {
		return token{kind: tokEOF}, nil
	}

	c := s.in[s.pos]

	switch c {
	case '{':
		s.pos++
		return token{kind: tokLBrace}, nil
	case '}':
		s.pos++
		return token{kind: tokRBrace}, nil
	case '[':
		s.pos++
		return token{kind: tokLBracket}, nil
	case ']':
		s.pos++
		return token{kind: tokRBracket}, nil
	case ':':
		s.pos++
		return token{kind: tokColon}, nil
	case ',':
		s.pos++
		return token{kind: tokComma}, nil
	}

	if isQuote(c) {
		return s.scanString(c)
	}

	if c == '-' || (c >= '0' && c <= '9') {
		return s.scanNumber()
	}

	if isIdentStart(c) {
		return s.scanIdent(), nil
	}

	return token{}, fmt.Errorf("unexpected character %q", c)
}

func (s *scanner) skipSpaceAndComments() error {
	for s.pos < len(s.in) {
		c := s.in[s.pos]

		switch {
		case unicode.IsSpace(c):
			s.pos++

		case c == '/' && s.pos+1 < len(s.in) && s.in[s.pos+1] == '/':
			for s.pos < len(s.in) && s.in[s.pos] != '\n' {
				s.pos++
			}

			s.fixes++ // line comment stripped

		case c == '/' && s.pos+1 < len(s.in) && s.in[s.pos+1] == '*':
			s.pos += 2
			for s.pos+1 < len(s.in) && !(s.in[s.pos] == '*' && s.in[s.pos+1] == '/') {
				s.pos++
			}

			if s.pos+1 >= len(s.in) {
				return errors.New("unterminated block comment")
			}

			s.pos += 2
			s.fixes++ // block comment stripped

		default:
			return nil
		}
	}

	return nil
}

func isQuote(c rune) bool {
	switch c {
	case '"', '\'', '`', '“', '”', '‘', '’':
		return true
	}

	return false
}

// closesString reports whether c terminates a string opened with open.
// Smart quotes close their whole family so mismatched pairs still scan.
func closesString(open, c rune) bool {
	switch open {
	case '“', '”':
		return c == '“' || c == '”'
	case '‘', '’':
		return c == '‘' || c == '’'
	}

	return c == open
}

func (s *scanner) scanString(open rune) (token, error) {
	s.pos++ // opening quote

	var (
		content  strings.Builder
		rawLines int
	)

	for s.pos < len(s.in) {
		c := s.in[s.pos]

		switch {
		case closesString(open, c):
			s.pos++

			if open != '"' {
				s.fixes++ // re-quoted with double quotes
			}

			s.fixes += rawLines

			return token{kind: tokString, text: content.String()}, nil

		case c == '\\':
			s.pos++
			s.scanEscape(&content)

		case c == '\r':
			s.pos++
			if s.pos < len(s.in) && s.in[s.pos] == '\n' {
				s.pos++
			}

			content.WriteByte('\n')

			rawLines++ // raw newline escaped

		case c == '\n':
			s.pos++
			content.WriteByte('\n')

			rawLines++

		default:
			s.pos++
			content.WriteRune(c)
		}
	}

	// Unterminated string: keep what was read; the enclosing container
	// will be closed synthetically.
	if open != '"' {
		s.fixes++
	}

	s.fixes += rawLines

	return token{kind: tokString, text: content.String()}, nil
}

func (s *scanner) scanEscape(content *strings.Builder) {
	if s.pos >= len(s.in) {
		content.WriteByte('\\')
		return
	}

	c := s.in[s.pos]
	s.pos++

	switch c {
	case '"', '\'', '`', '\\', '/':
		content.WriteRune(c)
	case 'b':
		content.WriteByte('\b')
	case 'f':
		content.WriteByte('\f')
	case 'n':
		content.WriteByte('\n')
	case 'r':
		content.WriteByte('\r')
	case 't':
		content.WriteByte('\t')
	case 'u':
		if s.pos+4 <= len(s.in) {
			if r, err := strconv.ParseUint(string(s.in[s.pos:s.pos+4]), 16, 32); err == nil {
				content.WriteRune(rune(r))
				s.pos += 4

				return
			}
		}

		content.WriteString(`\u`)
	default:
		// Unknown escape; keep both characters.
		content.WriteByte('\\')
		content.WriteRune(c)
	}
}

func (s *scanner) scanNumber() (token, error) {
	start := s.pos

	neg := false
	if s.in[s.pos] == '-' {
		neg = true
		s.pos++
	}

	// Hex integer literal converted to decimal.
	if s.pos+1 < len(s.in) && s.in[s.pos] == '0' &&
		(s.in[s.pos+1] == 'x' || s.in[s.pos+1] == 'X') {
		s.pos += 2
		hexStart := s.pos

		for s.pos < len(s.in) && isHexDigit(s.in[s.pos]) {
			s.pos++
		}

		if s.pos == hexStart {
			return token{}, errors.New("empty hex literal")
		}

		v, err := strconv.ParseInt(string(s.in[hexStart:s.pos]), 16, 64)
		if err != nil {
			return token{}, fmt.Errorf("hex literal: %w", err)
		}

		if neg {
			v = -v
		}

		s.fixes++ // hex converted to decimal

		return token{kind: tokNumber, text: strconv.FormatInt(v, 10)}, nil
	}

	prev := rune(0)

	for s.pos < len(s.in) {
		c := s.in[s.pos]

		ok := (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (prev == 'e' || prev == 'E'))
		if !ok {
			break
		}

		prev = c
		s.pos++
	}

	return token{kind: tokNumber, text: string(s.in[start:s.pos])}, nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || c == '$' || c == '-' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (s *scanner) scanIdent() token {
	start := s.pos

	for s.pos < len(s.in) && isIdentPart(s.in[s.pos]) {
		s.pos++
	}

	return token{kind: tokIdent, text: string(s.in[start:s.pos])}
}

// skipFunctionBody consumes a JavaScript function expression: an optional
// parenthesised parameter list followed by a braced body, with nesting and
// string contents respected. The "function" keyword itself has already been
// consumed.
func (s *scanner) skipFunctionBody() error {
	s.skipSpace()

	// Optional function name.
	if s.pos < len(s.in) && isIdentStart(s.in[s.pos]) {
		s.scanIdent()
		s.skipSpace()
	}

	if s.pos < len(s.in) && s.in[s.pos] == '(' {
		if err := s.skipBalanced('(', ')'); err != nil {
			return err
		}

		s.skipSpace()
	}

	if s.pos >= len(s.in) || s.in[s.pos] != '{' {
		return errors.New("function without body")
	}

	return s.skipBalanced('{', '}')
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.in) && unicode.IsSpace(s.in[s.pos]) {
		s.pos++
	}
}

func (s *scanner) skipBalanced(open, close rune) error {
	depth := 0

	for s.pos < len(s.in) {
		c := s.in[s.pos]

		switch c {
		case open:
			depth++
			s.pos++
		case close:
			depth--
			s.pos++

			if depth == 0 {
				return nil
			}
		case '"', '\'', '`':
			s.pos++
			for s.pos < len(s.in) && s.in[s.pos] != c {
				if s.in[s.pos] == '\\' {
					s.pos++
				}

				s.pos++
			}

			s.pos++
		default:
			s.pos++
		}
	}

	return fmt.Errorf("unbalanced %q in function body", open)
}

// encodeJSONString renders s as a JSON string literal.
func encodeJSONString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}

	return string(b)
}
