package driver

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nihei9/argot/grammar"
	"github.com/nihei9/argot/spec/grammar/tree"
	mlspec "github.com/nihei9/maleeni/spec"
)

// patternBuilder renders the elements of lexer rules as maleeni patterns. A reference to a fragment rule
// becomes a fragment reference; a reference to any other lexer rule is inlined.
type patternBuilder struct {
	g     *grammar.Grammar
	frags map[string]mlspec.LexKindName

	// inlining holds the rules being inlined; a rule reaching itself cannot be expressed as a pattern.
	inlining map[string]bool
}

func newPatternBuilder(g *grammar.Grammar, frags map[string]mlspec.LexKindName) *patternBuilder {
	return &patternBuilder{
		g:        g,
		frags:    frags,
		inlining: map[string]bool{},
	}
}

func (b *patternBuilder) rule(r *grammar.Rule) (string, error) {
	t := b.g.Tree
	blk := t.FirstChildOfKind(r.Node, tree.KindBlock)
	if blk == tree.Nil {
		return "", fmt.Errorf("lexer rule %v has no body", r.Name)
	}
	return b.alts(t.Children(blk))
}

func (b *patternBuilder) alts(alts []tree.NodeID) (string, error) {
	if len(alts) == 1 {
		return b.alt(alts[0])
	}
	ps := make([]string, len(alts))
	for i, alt := range alts {
		p, err := b.alt(alt)
		if err != nil {
			return "", err
		}
		ps[i] = p
	}
	return "(" + strings.Join(ps, "|") + ")", nil
}

func (b *patternBuilder) alt(alt tree.NodeID) (string, error) {
	var w strings.Builder
	for _, c := range b.g.Tree.Children(alt) {
		p, err := b.element(c)
		if err != nil {
			return "", err
		}
		w.WriteString(p)
	}
	if w.Len() == 0 {
		return "", b.errorf(alt, "an alternative matching the empty string")
	}
	return w.String(), nil
}

func (b *patternBuilder) element(id tree.NodeID) (string, error) {
	t := b.g.Tree
	n := t.Node(id)
	switch n.Kind {
	case tree.KindAction, tree.KindSempred, tree.KindLexerCommands:
		return "", nil
	case tree.KindBlock:
		p, err := b.alts(n.Children)
		if err != nil {
			return "", err
		}
		if len(n.Children) == 1 {
			return "(" + p + ")", nil
		}
		return p, nil
	case tree.KindOptional, tree.KindClosure, tree.KindPositiveClosure:
		if n.NonGreedy {
			return "", b.errorf(id, "a non-greedy loop")
		}
		p, err := b.element(n.Children[0])
		if err != nil {
			return "", err
		}
		switch n.Kind {
		case tree.KindOptional:
			return p + "?", nil
		case tree.KindClosure:
			return p + "*", nil
		}
		return p + "+", nil
	case tree.KindAssign, tree.KindPlusAssign:
		return b.element(n.Children[0])
	case tree.KindStringLiteral:
		s, err := grammar.UnquoteLiteral(n.Text)
		if err != nil {
			return "", b.errorf(id, err.Error())
		}
		if s == "" {
			return "", b.errorf(id, "an empty literal")
		}
		return mlspec.EscapePattern(s), nil
	case tree.KindWildcard:
		return ".", nil
	case tree.KindRange, tree.KindCharSet:
		items, err := b.classItems(id)
		if err != nil {
			return "", err
		}
		return "[" + strings.Join(items, "") + "]", nil
	case tree.KindNot:
		items, err := b.classItems(n.Children[0])
		if err != nil {
			return "", err
		}
		return "[^" + strings.Join(items, "") + "]", nil
	case tree.KindSet:
		if items, err := b.classItems(id); err == nil {
			return "[" + strings.Join(items, "") + "]", nil
		}
		ps := make([]string, len(n.Children))
		for i, c := range n.Children {
			p, err := b.element(c)
			if err != nil {
				return "", err
			}
			ps[i] = p
		}
		return "(" + strings.Join(ps, "|") + ")", nil
	case tree.KindTokenRef:
		return b.ref(id)
	}
	return "", b.errorf(id, fmt.Sprintf("a %v element", n.Kind))
}

func (b *patternBuilder) ref(id tree.NodeID) (string, error) {
	name := b.g.Tree.Text(id)
	if kind, ok := b.frags[name]; ok {
		return `\f{` + kind.String() + `}`, nil
	}
	r := b.g.Rule(name)
	if r == nil || !r.IsLexerRule() {
		return "", b.errorf(id, "a reference to "+name+", which is not a lexer rule")
	}
	if b.inlining[name] {
		return "", b.errorf(id, "a recursive reference to "+name)
	}
	b.inlining[name] = true
	defer delete(b.inlining, name)
	p, err := b.rule(r)
	if err != nil {
		return "", err
	}
	return "(" + p + ")", nil
}

// classItems returns the members of a character class matching the same characters as the element.
func (b *patternBuilder) classItems(id tree.NodeID) ([]string, error) {
	t := b.g.Tree
	n := t.Node(id)
	switch n.Kind {
	case tree.KindStringLiteral:
		c, err := b.char(id)
		if err != nil {
			return nil, err
		}
		return []string{codePoint(c)}, nil
	case tree.KindRange:
		from, err := b.char(n.Children[0])
		if err != nil {
			return nil, err
		}
		to, err := b.char(n.Children[1])
		if err != nil {
			return nil, err
		}
		if from > to {
			return nil, b.errorf(id, "a reversed range")
		}
		return []string{codePoint(from) + "-" + codePoint(to)}, nil
	case tree.KindCharSet:
		items, err := parseCharSet(n.Text[1 : len(n.Text)-1])
		if err != nil {
			return nil, b.errorf(id, err.Error())
		}
		return items, nil
	case tree.KindSet:
		var items []string
		for _, c := range n.Children {
			is, err := b.classItems(c)
			if err != nil {
				return nil, err
			}
			items = append(items, is...)
		}
		return items, nil
	case tree.KindTokenRef:
		// A rule matching a single character set can be a member, as in ~[ABC] written ~(A | B | C).
		r := b.g.Rule(n.Text)
		if r == nil || !r.IsLexerRule() || b.inlining[r.Name] {
			break
		}
		blk := t.FirstChildOfKind(r.Node, tree.KindBlock)
		if blk == tree.Nil {
			break
		}
		b.inlining[r.Name] = true
		defer delete(b.inlining, r.Name)
		var items []string
		for _, alt := range t.Children(blk) {
			var elems []tree.NodeID
			for _, c := range t.Children(alt) {
				switch t.Kind(c) {
				case tree.KindAction, tree.KindSempred, tree.KindLexerCommands:
				default:
					elems = append(elems, c)
				}
			}
			if len(elems) != 1 {
				return nil, b.errorf(id, n.Text+" is not a character set")
			}
			is, err := b.classItems(elems[0])
			if err != nil {
				return nil, err
			}
			items = append(items, is...)
		}
		return items, nil
	}
	return nil, b.errorf(id, fmt.Sprintf("a %v element in a character set", n.Kind))
}

func (b *patternBuilder) char(id tree.NodeID) (rune, error) {
	n := b.g.Tree.Node(id)
	s, err := grammar.UnquoteLiteral(n.Text)
	if err != nil {
		return 0, b.errorf(id, err.Error())
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, b.errorf(id, n.Text+" is not a single character")
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

func (b *patternBuilder) errorf(id tree.NodeID, what string) error {
	n := b.g.Tree.Node(id)
	return fmt.Errorf("%v: the interpreter cannot match %v", n.Pos, what)
}

func codePoint(c rune) string {
	if c > 0xffff {
		return fmt.Sprintf(`\u{%06X}`, c)
	}
	return fmt.Sprintf(`\u{%04X}`, c)
}

// parseCharSet reads the contents of a [...] set, like a-zA-Z_ or A\-\]. Property escapes such as \p{L}
// are passed through.
func parseCharSet(s string) ([]string, error) {
	var items []string
	var prev rune
	hasPrev := false
	for i := 0; i < len(s); {
		c, w := utf8.DecodeRuneInString(s[i:])
		if c == '-' && hasPrev && i+w < len(s) {
			to, n, err := readSetChar(s[i+w:])
			if err != nil {
				return nil, err
			}
			if prev > to {
				return nil, fmt.Errorf("a reversed range in [%v]", s)
			}
			items[len(items)-1] = codePoint(prev) + "-" + codePoint(to)
			hasPrev = false
			i += w + n
			continue
		}
		if strings.HasPrefix(s[i:], `\p{`) || strings.HasPrefix(s[i:], `\P{`) {
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("an unclosed property in [%v]", s)
			}
			if s[i+1] == 'P' {
				return nil, fmt.Errorf("a negated property in [%v]", s)
			}
			items = append(items, s[i:i+end+1])
			hasPrev = false
			i += end + 1
			continue
		}
		c, n, err := readSetChar(s[i:])
		if err != nil {
			return nil, err
		}
		items = append(items, codePoint(c))
		prev = c
		hasPrev = true
		i += n
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("an empty set")
	}
	return items, nil
}

func readSetChar(s string) (rune, int, error) {
	c, w := utf8.DecodeRuneInString(s)
	if c != '\\' {
		return c, w, nil
	}
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("a set ends with a backslash")
	}
	switch s[1] {
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'f':
		return '\f', 2, nil
	case 'u':
		if strings.HasPrefix(s[2:], "{") {
			end := strings.IndexByte(s, '}')
			if end < 0 {
				return 0, 0, fmt.Errorf("an unclosed code point escape")
			}
			v, err := strconv.ParseUint(s[3:end], 16, 32)
			if err != nil || v > 0x10ffff {
				return 0, 0, fmt.Errorf("an invalid code point escape %v", s[:end+1])
			}
			return rune(v), end + 1, nil
		}
		if len(s) < 6 {
			return 0, 0, fmt.Errorf("a short code point escape")
		}
		v, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("an invalid code point escape %v", s[:6])
		}
		return rune(v), 6, nil
	}
	c, w = utf8.DecodeRuneInString(s[1:])
	return c, 1 + w, nil
}
