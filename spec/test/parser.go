// Package test reads interpreter test cases. A test case consists of a description, a source text and the
// expected parse tree, separated by lines of three or more dashes:
//
//	Addition is left-associative
//	---
//	1 + 2 + 3
//	---
//	(e (INT '1') ('+' '+') (e (INT '2')) ('+' '+') (e (INT '3')))
//
// A token node holds its lexeme as a quoted string. The kind _ matches any kind.
package test

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree

	// Terminal marks a token node; only a token node has a lexeme.
	Terminal bool
	Lexeme   string
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:     kind,
		Terminal: true,
		Lexeme:   lexeme,
	}
}

func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.Kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.Kind)
}

func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
	buf.WriteString("(")
	buf.WriteString(t.Kind)
	if t.Terminal {
		buf.WriteString(" ")
		buf.WriteString(quote(t.Lexeme))
	}
	if len(t.Children) > 0 {
		buf.WriteString("\n")
		for i, c := range t.Children {
			c.format(buf, depth+1)
			if i < len(t.Children)-1 {
				buf.WriteString("\n")
			}
		}
	}
	buf.WriteString(")")
}

// DiffTree compares an actual tree with an expected one and reports the first mismatch on every path.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil || actual == nil {
		if expected == actual {
			return nil
		}
		return []*TreeDiff{
			{
				Message: "one of the trees is missing",
			},
		}
	}
	// _ matches any kind.
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Terminal != actual.Terminal {
		msg := fmt.Sprintf("unexpected node type: expected a %v but got a %v", nodeType(expected), nodeType(actual))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected %v but got %v", quote(expected.Lexeme), quote(actual.Lexeme))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

func nodeType(t *Tree) string {
	if t.Terminal {
		return "token"
	}
	return "rule"
}

type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just tree parts: %v parts found", len(parts))
	}

	tp := &treeParser{
		lineOffset: parts[0].lineCount + parts[1].lineCount + 2,
	}
	tree, err := tp.parseTree(parts[2].buf)
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      tree,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		// (*bytes.Buffer).Bytes() returns nil when nothing has been written.
		return []byte{}, 0, nil
	}
	buf.Write(line)
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		buf.WriteString("\n")
		buf.Write(line)
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

var treeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Lexeme", Pattern: `'(\\.|[^'\\\n])*'`},
	{Name: "Kind", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// treeNode is the notation of an expected tree. A node whose kind is followed by a lexeme is a token node; the
// kind of an implicit token is its literal, as in ('+' '+').
type treeNode struct {
	Pos      lexer.Position
	Kind     string      `parser:"\"(\" ( @Kind | @Lexeme )"`
	Lexeme   *string     `parser:"@Lexeme?"`
	Children []*treeNode `parser:"@@* \")\""`
}

var treeNotation = participle.MustBuild[treeNode](
	participle.Lexer(treeLexer),
	participle.Elide("Comment", "Whitespace"),
)

type treeParser struct {
	lineOffset int
}

func (tp *treeParser) parseTree(src []byte) (*Tree, error) {
	n, err := treeNotation.ParseBytes("", src)
	if err != nil {
		if perr, ok := err.(participle.Error); ok {
			pos := perr.Position()
			return nil, fmt.Errorf("%v:%v: %v", tp.lineOffset+pos.Line, pos.Column, perr.Message())
		}
		return nil, err
	}
	t, err := tp.genTree(n)
	if err != nil {
		return nil, err
	}
	return t.Fill(), nil
}

func (tp *treeParser) genTree(n *treeNode) (*Tree, error) {
	if n.Lexeme != nil {
		if len(n.Children) > 0 {
			return nil, fmt.Errorf("%v:%v: a token node cannot have children", tp.lineOffset+n.Pos.Line, n.Pos.Column)
		}
		lexeme, err := unquote(*n.Lexeme)
		if err != nil {
			return nil, fmt.Errorf("%v:%v: %v", tp.lineOffset+n.Pos.Line, n.Pos.Column, err)
		}
		return NewTerminalNode(n.Kind, lexeme), nil
	}

	var children []*Tree
	if len(n.Children) > 0 {
		children = make([]*Tree, len(n.Children))
		for i, c := range n.Children {
			var err error
			children[i], err = tp.genTree(c)
			if err != nil {
				return nil, err
			}
		}
	}
	return NewNonTerminalTree(n.Kind, children...), nil
}

var lexemeQuoter = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return "'" + lexemeQuoter.Replace(s) + "'"
}

// unquote reads a quoted lexeme. The escapes are \\, \', \n, \r, \t and \u{X...}.
func unquote(q string) (string, error) {
	s := q[1 : len(q)-1]
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("incomplete escape sequence: %v", q)
		}
		switch s[i+1] {
		case '\\', '\'':
			b.WriteByte(s[i+1])
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if !strings.HasPrefix(s[i+2:], "{") || end < 0 {
				return "", fmt.Errorf("incomplete code point: %v", q)
			}
			cp := s[i+3 : i+end]
			n, err := strconv.ParseInt(cp, 16, 64)
			if err != nil {
				return "", fmt.Errorf("invalid code point: %v", cp)
			}
			if !utf8.ValidRune(rune(n)) {
				return "", fmt.Errorf("invalid code point: %v", cp)
			}
			b.WriteRune(rune(n))
			i += end + 1
			continue
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c: %v", s[i+1], q)
		}
		i += 2
	}
	return b.String(), nil
}
