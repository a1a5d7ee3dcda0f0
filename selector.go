package swiftxsv

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is one element of a Selector. It is always a *NameTerm, *IndexTerm,
// or *RangeTerm.
type Term interface {
	String() string
	term()
}

// NameTerm selects the Nth (0-based) header field equal to Name.
type NameTerm struct {
	Name string
	Nth  int
}

// IndexTerm selects a column by its 1-based position.
type IndexTerm struct {
	Pos int
}

// RangeTerm selects every column from Start to End inclusive, in the
// direction written. A nil Start means the first column, a nil End the last.
// Bounds are *NameTerm or *IndexTerm.
type RangeTerm struct {
	Start Term
	End   Term
}

func (*NameTerm) term()  {}
func (*IndexTerm) term() {}
func (*RangeTerm) term() {}

func (t *NameTerm) String() string {
	name := t.Name
	if needsQuoting(name) {
		name = `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	if t.Nth > 0 {
		return name + "[" + strconv.Itoa(t.Nth) + "]"
	}
	return name
}

func (t *IndexTerm) String() string { return strconv.Itoa(t.Pos) }

func (t *RangeTerm) String() string {
	var b strings.Builder
	if t.Start != nil {
		b.WriteString(t.Start.String())
	}
	b.WriteByte('-')
	if t.End != nil {
		b.WriteString(t.End.String())
	}
	return b.String()
}

// Selector is a parsed column selection. It is immutable once parsed.
//
// Syntax: an optional leading '!' followed by comma-separated terms. A term
// is a 1-based position, a header name, or a range "a-b" of either with
// optional ends. Names containing ',', '-', '[' or '"', or made only of
// digits, are written in double quotes ("" escapes a quote). A name may be
// followed by "[n]" to pick its nth occurrence among duplicate headers.
type Selector struct {
	Terms   []Term
	Exclude bool
}

// String renders the selector in canonical syntax.
func (s *Selector) String() string {
	var b strings.Builder
	if s.Exclude {
		b.WriteByte('!')
	}
	for i, t := range s.Terms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// ParseSelector parses selector text. The empty string is a valid selector
// that selects no columns.
func ParseSelector(text string) (*Selector, error) {
	p := &selectorParser{text: text}
	sel := &Selector{}
	if strings.HasPrefix(text, "!") {
		sel.Exclude = true
		p.pos++
	}
	if p.done() {
		return sel, nil
	}

	for {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		sel.Terms = append(sel.Terms, t)
		if p.done() {
			return sel, nil
		}
		if !p.at(',') {
			return nil, p.errorf("expected ',' after %s", t)
		}
		p.pos++
		if p.done() {
			return nil, p.errorf("empty term after ','")
		}
	}
}

// MustParseSelector is like ParseSelector but panics on a syntax error.
func MustParseSelector(text string) *Selector {
	sel, err := ParseSelector(text)
	if err != nil {
		panic(err)
	}
	return sel
}

type selectorParser struct {
	text string
	pos  int
}

func (p *selectorParser) done() bool { return p.pos >= len(p.text) }

func (p *selectorParser) at(c byte) bool { return p.pos < len(p.text) && p.text[p.pos] == c }

func (p *selectorParser) errorf(msg string, args ...any) error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &SelectorError{Expr: p.text, Pos: p.pos, Msg: msg}
}

func (p *selectorParser) parseTerm() (Term, error) {
	var start Term
	if !p.at('-') {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		start = b
	}
	if !p.at('-') {
		return start, nil
	}

	p.pos++
	rng := &RangeTerm{Start: start}
	if !p.done() && !p.at(',') {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		rng.End = b
	}
	return rng, nil
}

func (p *selectorParser) parseBound() (Term, error) {
	if p.at('"') {
		name, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		return p.parseNth(name)
	}

	begin := p.pos
	for !p.done() {
		c := p.text[p.pos]
		if c == ',' || c == '-' || c == '[' || c == '"' {
			break
		}
		p.pos++
	}
	word := p.text[begin:p.pos]
	if word == "" {
		return nil, p.errorf("empty term")
	}

	if isDigits(word) {
		pos, err := strconv.Atoi(word)
		if err != nil {
			return nil, &SelectorError{Expr: p.text, Pos: begin, Msg: "position " + word + " is too large"}
		}
		if pos == 0 {
			return nil, &SelectorError{Expr: p.text, Pos: begin, Msg: "positions start at 1"}
		}
		if p.at('[') {
			return nil, p.errorf("occurrence suffix is only allowed after a name")
		}
		return &IndexTerm{Pos: pos}, nil
	}
	return p.parseNth(word)
}

// parseQuoted reads a double-quoted name starting at the opening quote.
func (p *selectorParser) parseQuoted() (string, error) {
	open := p.pos
	p.pos++
	var b strings.Builder
	for !p.done() {
		c := p.text[p.pos]
		p.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if p.at('"') {
			b.WriteByte('"')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", &SelectorError{Expr: p.text, Pos: open, Msg: "unterminated quoted name"}
}

func (p *selectorParser) parseNth(name string) (Term, error) {
	t := &NameTerm{Name: name}
	if !p.at('[') {
		return t, nil
	}
	p.pos++
	begin := p.pos
	for !p.done() && p.text[p.pos] >= '0' && p.text[p.pos] <= '9' {
		p.pos++
	}
	digits := p.text[begin:p.pos]
	if digits == "" || !p.at(']') {
		return nil, p.errorf("expected occurrence number in [ ] after %q", name)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil, p.errorf("occurrence %s is too large", digits)
	}
	p.pos++
	t.Nth = n
	return t, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func needsQuoting(name string) bool {
	return name == "" || isDigits(name) || strings.HasPrefix(name, "!") ||
		strings.ContainsAny(name, `,-["`)
}
