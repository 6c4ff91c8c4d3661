package test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffTree(t *testing.T) {
	tests := []struct {
		caption   string
		expected  *Tree
		actual    *Tree
		different bool
		path      string
	}{
		{
			caption:  "identical leaves",
			expected: NewNonTerminalTree("a"),
			actual:   NewNonTerminalTree("a"),
		},
		{
			caption: "identical nested trees",
			expected: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewTerminalNode("C", "c"),
				),
				NewTerminalNode("D", "d"),
			),
			actual: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewTerminalNode("C", "c"),
				),
				NewTerminalNode("D", "d"),
			),
		},
		{
			caption: "_ matches any kind",
			expected: NewNonTerminalTree("_",
				NewTerminalNode("_", "x"),
			),
			actual: NewNonTerminalTree("a",
				NewTerminalNode("X", "x"),
			),
		},
		{
			caption:   "different kinds",
			expected:  NewNonTerminalTree("a"),
			actual:    NewNonTerminalTree("b"),
			different: true,
			path:      "a",
		},
		{
			caption: "different lexemes",
			expected: NewNonTerminalTree("a",
				NewTerminalNode("X", "x"),
			),
			actual: NewNonTerminalTree("a",
				NewTerminalNode("X", "y"),
			),
			different: true,
			path:      "a.[0]X",
		},
		{
			caption: "a token where a rule is expected",
			expected: NewNonTerminalTree("a",
				NewNonTerminalTree("X"),
			),
			actual: NewNonTerminalTree("a",
				NewTerminalNode("X", ""),
			),
			different: true,
			path:      "a.[0]X",
		},
		{
			caption: "a missing child",
			expected: NewNonTerminalTree("a",
				NewNonTerminalTree("b"),
				NewNonTerminalTree("c"),
			),
			actual: NewNonTerminalTree("a",
				NewNonTerminalTree("b"),
			),
			different: true,
			path:      "a",
		},
		{
			caption: "a difference deep in the tree",
			expected: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewNonTerminalTree("c"),
				),
			),
			actual: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewNonTerminalTree("d"),
				),
			),
			different: true,
			path:      "a.[0]b.[0]c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			diffs := DiffTree(tt.expected.Fill(), tt.actual.Fill())
			if !tt.different {
				assert.Empty(t, diffs)
				return
			}
			require.Len(t, diffs, 1)
			assert.Equal(t, tt.path, diffs[0].ExpectedPath)
		})
	}
}

func TestParseTestCase(t *testing.T) {
	tests := []struct {
		caption  string
		src      string
		tc       *TestCase
		parseErr bool
	}{
		{
			caption: "a minimal test case",
			src: `test
---
foo
---
(foo)
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo").Fill(),
			},
		},
		{
			caption: "blank lines belong to the parts",
			src: `
test

---

foo

---

(foo)

`,
			tc: &TestCase{
				Description: "\ntest\n",
				Source:      []byte("\nfoo\n"),
				Output:      NewNonTerminalTree("foo").Fill(),
			},
		},
		{
			caption: "a delimiter may be longer than three dashes",
			src: `test
----
foo
----
(foo)
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo").Fill(),
			},
		},
		{
			caption: "the description may be empty",
			src: `----
foo
----
(foo)
`,
			tc: &TestCase{
				Description: "",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo").Fill(),
			},
		},
		{
			caption: "the source may be empty",
			src: `test
---
---
(foo)
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte{},
				Output:      NewNonTerminalTree("foo").Fill(),
			},
		},
		{
			caption: "tokens, literal kinds and escapes",
			src: `expression
---
1 + 'a'
---
// a comment
(e
    (INT '1')
    ('+' '+')
    (e (STR '\'a\'\u{0021}\n')))
`,
			tc: &TestCase{
				Description: "expression",
				Source:      []byte("1 + 'a'"),
				Output: NewNonTerminalTree("e",
					NewTerminalNode("INT", "1"),
					NewTerminalNode("'+'", "+"),
					NewNonTerminalTree("e",
						NewTerminalNode("STR", "'a'!\n"),
					),
				).Fill(),
			},
		},
		{
			caption:  "an empty file",
			src:      ``,
			parseErr: true,
		},
		{
			caption: "no tree part",
			src: `test
---
foo
`,
			parseErr: true,
		},
		{
			caption: "an empty tree part",
			src: `test
---
foo
---
`,
			parseErr: true,
		},
		{
			caption: "short delimiters",
			src: `test
--
foo
--
(foo)
`,
			parseErr: true,
		},
		{
			caption: "a malformed tree",
			src: `test
---
foo
---
?
`,
			parseErr: true,
		},
		{
			caption: "a token node with children",
			src: `test
---
foo
---
(A 'a' (b))
`,
			parseErr: true,
		},
		{
			caption: "an unknown escape",
			src: `test
---
foo
---
(A '\q')
`,
			parseErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tc, err := ParseTestCase(strings.NewReader(tt.src))
			if tt.parseErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tc.Description, tc.Description)
			assert.Equal(t, tt.tc.Source, tc.Source)
			assert.Empty(t, DiffTree(tt.tc.Output, tc.Output), "unexpected tree:\n%s", tc.Output.Format())
		})
	}
}

func TestTree_Format(t *testing.T) {
	tr := NewNonTerminalTree("s",
		NewTerminalNode("ID", "it's"),
		NewNonTerminalTree("t"),
	).Fill()
	assert.Equal(t, `(s
    (ID 'it\'s')
    (t))`, string(tr.Format()))
}
