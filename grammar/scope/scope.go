// Package scope parses the declaration lists of rule arguments, return values, and locals.
//
// The text is in the target language, so it is not parsed strictly. Both prefix declarators such as `int x` or
// `Map<String, String> m` and postfix declarators such as `x : T` are accepted, optionally followed by `= init`.
package scope

import (
	"strings"
	"unicode"
	"unicode/utf8"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/spec/grammar/tree"
)

// Decl is an item of a declaration list. Offset is the byte offset of its first character in the list text with
// `//` comments removed.
type Decl struct {
	Text   string
	Offset int
}

// Parse converts a declaration list into a scope. pos is the position of the opening `[` preceding text.
// An item lacking a name is reported as CANNOT_FIND_ATTRIBUTE_NAME_IN_DECL and still added to the scope.
func Parse(kind attr.DictKind, name string, text string, pos tree.Position, errs *verr.Manager) *attr.Dict {
	d := attr.NewDict(kind, name)
	stripped, origIdx := stripComments(text)
	for _, decl := range splitDecls(stripped, ',') {
		a, start, ok := parseDecl(decl.Text)
		if !ok {
			errs.Report(verr.ErrCannotFindAttributeNameInDecl, pos, decl.Text)
		}
		a.Pos = tree.Inside(pos, text, origIdx[decl.Offset+start])
		d.Add(a)
	}
	return d
}

// SplitDecls splits s at every sep appearing at the top level. Separators inside (), {}, [], quoted literals,
// and <> are ignored; `<` opens a bracket only when a `>` follows somewhere. `//` comments are dropped first.
// Empty items are omitted.
func SplitDecls(s string, sep byte) []Decl {
	stripped, _ := stripComments(s)
	return splitDecls(stripped, sep)
}

func splitDecls(s string, sep byte) []Decl {
	var decls []Decl
	add := func(from, to int) {
		for from < to && isSpace(s[from]) {
			from++
		}
		text := strings.TrimSpace(s[from:to])
		if text == "" {
			return
		}
		decls = append(decls, Decl{
			Text:   text,
			Offset: from,
		})
	}

	last := 0
	p := 0
	for p < len(s) {
		c := s[p]
		switch {
		case c == '\'' || c == '"':
			p = skipQuoted(s, p)
		case c == '(' || c == '{' || c == '[':
			p = skipBracket(s, p+1, closer(c))
		case c == '<' && strings.IndexByte(s[p+1:], '>') >= 0:
			p = skipBracket(s, p+1, '>')
		case c == sep:
			add(last, p)
			last = p + 1
			p++
		default:
			p++
		}
	}
	// An unbalanced bracket swallows the rest of the text, which stays the last item.
	add(last, len(s))
	return decls
}

func closer(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '{':
		return '}'
	}
	return ']'
}

// skipBracket returns the index following the close matching an already consumed opening bracket, or len(s)
// when the bracket is never closed.
func skipBracket(s string, p int, close byte) int {
	for p < len(s) {
		c := s[p]
		switch {
		case c == close:
			return p + 1
		case c == '\'' || c == '"':
			p = skipQuoted(s, p)
		case c == '(' || c == '{' || c == '[':
			p = skipBracket(s, p+1, closer(c))
		case c == '<' && strings.IndexByte(s[p+1:], '>') >= 0:
			p = skipBracket(s, p+1, '>')
		default:
			p++
		}
	}
	return p
}

// skipQuoted returns the index following the literal starting at s[p].
func skipQuoted(s string, p int) int {
	q := s[p]
	p++
	for p < len(s) && s[p] != q {
		if s[p] == '\\' {
			p++
		}
		p++
	}
	if p >= len(s) {
		return len(s)
	}
	return p + 1
}

// stripComments removes `//` comments up to the end of their lines. The second result maps every byte offset
// of the stripped text, and the offset of its end, to the offset in s.
func stripComments(s string) (string, []int) {
	var b strings.Builder
	idx := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i >= len(s) {
				break
			}
		}
		b.WriteByte(s[i])
		idx = append(idx, i)
	}
	idx = append(idx, len(s))
	return b.String(), idx
}

// parseDecl splits a single declaration into a name, a type, and an initial value. The second result is the
// byte offset of the name in decl. The last result is false when decl has no name.
func parseDecl(decl string) (*attr.Attribute, int, bool) {
	a := &attr.Attribute{
		Decl: decl,
	}
	declarator := decl
	if eq := strings.IndexByte(decl, '='); eq > 0 {
		a.InitValue = strings.TrimSpace(decl[eq+1:])
		declarator = decl[:eq]
	}

	var start, stop int
	var ok bool
	if strings.Contains(strings.ReplaceAll(decl, "::", ""), ":") {
		start, stop, ok = parsePostfixDecl(declarator)
		if colon := strings.IndexByte(declarator, ':'); colon >= 0 {
			a.Type = strings.TrimSpace(declarator[colon+1:])
		}
	} else {
		start, stop, ok = parsePrefixDecl(declarator)
		if ok {
			a.Type = strings.TrimSpace(declarator[:start] + declarator[stop:])
		} else {
			a.Type = strings.TrimSpace(declarator)
		}
	}
	a.Name = declarator[start:stop]
	return a, start, ok
}

// parsePrefixDecl finds the last identifier of a declarator such as `char *foo32[3]`. Array suffixes are not
// searched for the name.
func parsePrefixDecl(decl string) (int, int, bool) {
	end := len(decl)
	for end > 0 {
		r, size := utf8.DecodeLastRuneInString(decl[:end])
		if isIDRune(r) {
			break
		}
		if r == ']' {
			if open := strings.LastIndexByte(decl[:end-1], '['); open >= 0 {
				end = open
				continue
			}
		}
		end -= size
	}
	if end == 0 {
		return 0, 0, false
	}
	start := end
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(decl[:start])
		if !isIDRune(r) {
			break
		}
		start -= size
	}
	return start, end, true
}

// parsePostfixDecl finds the first identifier preceding the colon of a declarator such as `x : T`.
func parsePostfixDecl(decl string) (int, int, bool) {
	nameEnd := len(decl)
	if colon := strings.IndexByte(decl, ':'); colon >= 0 {
		nameEnd = colon
	}
	start := -1
	for i, r := range decl[:nameEnd] {
		if isIDRune(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}
	stop := nameEnd
	for i, r := range decl[start:nameEnd] {
		if !isIDRune(r) {
			stop = start + i
			break
		}
	}
	return start, stop, true
}

func isIDRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
