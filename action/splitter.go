// Package action binds the attribute references embedded in actions. Binding runs in two phases: Split cuts the
// text of an action into literal spans and reference spans, and a translator resolves each reference span
// against the scope the action appears in and produces chunks.
package action

import (
	"fmt"
	"strings"
)

type SpanKind int

const (
	SpanText SpanKind = iota
	SpanAttr
	SpanQualifiedAttr
	SpanSetAttr
	SpanNonLocalAttr
	SpanSetNonLocalAttr
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "TEXT"
	case SpanAttr:
		return "ATTR"
	case SpanQualifiedAttr:
		return "QUALIFIED_ATTR"
	case SpanSetAttr:
		return "SET_ATTR"
	case SpanNonLocalAttr:
		return "NONLOCAL_ATTR"
	case SpanSetNonLocalAttr:
		return "SET_NONLOCAL_ATTR"
	}
	return fmt.Sprintf("SpanKind(%d)", int(k))
}

// Span is a piece of an action. Offsets are byte offsets into the action text.
type Span struct {
	Kind SpanKind

	// Expr is the source text of the span.
	Expr   string
	Offset int

	// Text is the literal text of a text span with `\$` escapes resolved.
	Text string

	// X and Y are the names in `$x`, `$x.y`, and `$x::y`.
	X       string
	XOffset int
	Y       string
	YOffset int

	// RHS is the right-hand side of an assignment, without the `=` and the terminating `;`.
	RHS       string
	RHSOffset int
}

func (s *Span) String() string {
	return fmt.Sprintf("'%v'<%v>", s.Expr, s.Kind)
}

// Split cuts an action into spans. Adjacent literal text is merged into one span. A `$` not followed by an
// identifier and a reference inside a comment that starts a literal run stay literal.
func Split(action string) []*Span {
	sp := &splitter{
		src: action,
	}
	sp.run()
	return sp.spans
}

type splitter struct {
	src   string
	spans []*Span
}

func (sp *splitter) run() {
	p := 0
	for p < len(sp.src) {
		if ref := sp.reference(p); ref != nil {
			sp.spans = append(sp.spans, ref)
			p += len(ref.Expr)
			continue
		}
		end := sp.textEnd(p)
		if c := sp.commentEnd(p); c > end {
			end = c
		}
		sp.text(p, end)
		p = end
	}
}

func (sp *splitter) text(from, to int) {
	expr := sp.src[from:to]
	lit := unescape(expr)
	if n := len(sp.spans); n > 0 && sp.spans[n-1].Kind == SpanText {
		last := sp.spans[n-1]
		last.Expr += expr
		last.Text += lit
		return
	}
	sp.spans = append(sp.spans, &Span{
		Kind:   SpanText,
		Expr:   expr,
		Offset: from,
		Text:   lit,
	})
}

// textEnd returns the end of the literal run starting at p. The run stops in front of the next reference.
func (sp *splitter) textEnd(p int) int {
	s := sp.src
	for p < len(s) {
		switch {
		case s[p] == '\\' && p+1 < len(s):
			p += 2
		case s[p] == '$' && p+1 < len(s) && isIDStart(s[p+1]):
			return p
		default:
			p++
		}
	}
	return p
}

// commentEnd returns the end of a comment starting at p, or -1.
func (sp *splitter) commentEnd(p int) int {
	s := sp.src[p:]
	switch {
	case strings.HasPrefix(s, "/*"):
		if i := strings.Index(s[2:], "*/"); i >= 0 {
			return p + 2 + i + 2
		}
	case strings.HasPrefix(s, "//"):
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			return p + i + 1
		}
	}
	return -1
}

// reference recognizes the longest reference starting at p.
func (sp *splitter) reference(p int) *Span {
	s := sp.src
	if s[p] != '$' || p+1 >= len(s) || !isIDStart(s[p+1]) {
		return nil
	}
	xFrom := p + 1
	xTo := scanID(s, xFrom)
	ref := &Span{
		X:       s[xFrom:xTo],
		XOffset: xFrom,
		Offset:  p,
	}

	if strings.HasPrefix(s[xTo:], "::") && xTo+2 < len(s) && isIDStart(s[xTo+2]) {
		yFrom := xTo + 2
		yTo := scanID(s, yFrom)
		ref.Y = s[yFrom:yTo]
		ref.YOffset = yFrom
		if rhsFrom, rhsTo, ok := assignment(s, yTo); ok {
			ref.Kind = SpanSetNonLocalAttr
			ref.RHS = s[rhsFrom:rhsTo]
			ref.RHSOffset = rhsFrom
			ref.Expr = s[p : rhsTo+1]
			return ref
		}
		ref.Kind = SpanNonLocalAttr
		ref.Expr = s[p:yTo]
		return ref
	}

	if xTo+1 < len(s) && s[xTo] == '.' && isIDStart(s[xTo+1]) {
		yFrom := xTo + 1
		yTo := scanID(s, yFrom)
		// `$x.y(` is a method call on $x.
		if yTo >= len(s) || s[yTo] != '(' {
			ref.Kind = SpanQualifiedAttr
			ref.Y = s[yFrom:yTo]
			ref.YOffset = yFrom
			ref.Expr = s[p:yTo]
			return ref
		}
	}

	if rhsFrom, rhsTo, ok := assignment(s, xTo); ok {
		ref.Kind = SpanSetAttr
		ref.RHS = s[rhsFrom:rhsTo]
		ref.RHSOffset = rhsFrom
		ref.Expr = s[p : rhsTo+1]
		return ref
	}

	ref.Kind = SpanAttr
	ref.Expr = s[p:xTo]
	return ref
}

// assignment recognizes `= rhs;` at p, with optional white space in front of `=`. The right-hand side must not
// start with `=` so that `==` is not taken for an assignment. It returns the bounds of the right-hand side; the
// `;` is at the returned end.
func assignment(s string, p int) (int, int, bool) {
	for p < len(s) && isSpace(s[p]) {
		p++
	}
	if p >= len(s) || s[p] != '=' {
		return 0, 0, false
	}
	p++
	if p >= len(s) || s[p] == '=' {
		return 0, 0, false
	}
	semi := strings.IndexByte(s[p+1:], ';')
	if semi < 0 {
		return 0, 0, false
	}
	return p, p + 1 + semi, true
}

func unescape(s string) string {
	if !strings.Contains(s, `\$`) {
		return s
	}
	return strings.ReplaceAll(s, `\$`, "$")
}

func scanID(s string, p int) int {
	for p < len(s) && isIDChar(s[p]) {
		p++
	}
	return p
}

func isIDStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIDChar(c byte) bool {
	return isIDStart(c) || '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
