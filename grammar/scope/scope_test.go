package scope

import (
	"errors"
	"testing"

	verr "github.com/nihei9/argot/error"
	"github.com/nihei9/argot/grammar/attr"
	"github.com/nihei9/argot/spec/grammar/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDecls(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		want    []string
	}{
		{
			caption: "separators nested in brackets and literals do not split",
			src:     `x, (*a).foo(21,33), 3.2+1, '\n', "a,oo\nick", {bl, "fdkj"eck}`,
			want:    []string{`x`, `(*a).foo(21,33)`, `3.2+1`, `'\n'`, `"a,oo\nick"`, `{bl, "fdkj"eck}`},
		},
		{
			caption: "generic brackets and square brackets do not split",
			src:     `Map<String, String> m, int[] j3, char *foo32[3], ["cat\n,", x, 43]`,
			want:    []string{`Map<String, String> m`, `int[] j3`, `char *foo32[3]`, `["cat\n,", x, 43]`},
		},
		{
			caption: "a less-than sign without a following greater-than sign is an ordinary character",
			src:     `int x = a < b, int y`,
			want:    []string{`int x = a < b`, `int y`},
		},
		{
			caption: "escaped quotes do not close a literal",
			src:     `String s = "a\",b", char c = '\''`,
			want:    []string{`String s = "a\",b"`, `char c = '\''`},
		},
		{
			caption: "comments are dropped and empty items are omitted",
			src:     "int a, // b, c\n int d, ,",
			want:    []string{`int a`, `int d`},
		},
		{
			caption: "an unclosed bracket keeps the rest of the text as the last item",
			src:     `int a, f(b, c`,
			want:    []string{`int a`, `f(b, c`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			var got []string
			for _, d := range SplitDecls(tt.src, ',') {
				got = append(got, d.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitDecls_Offset(t *testing.T) {
	decls := SplitDecls("a,   b ,c", ',')
	require.Len(t, decls, 3)
	assert.Equal(t, 0, decls[0].Offset)
	assert.Equal(t, 5, decls[1].Offset)
	assert.Equal(t, 8, decls[2].Offset)
}

func TestParse(t *testing.T) {
	type decl struct {
		name string
		typ  string
		init string
	}
	tests := []struct {
		caption string
		src     string
		want    []decl
	}{
		{
			caption: "prefix declarators",
			src:     `int i, Map<String, String> m, char *foo32[3]`,
			want: []decl{
				{name: "i", typ: "int"},
				{name: "m", typ: "Map<String, String>"},
				{name: "foo32", typ: "char *[3]"},
			},
		},
		{
			caption: "array types on either side of the name",
			src:     `int[] i, int j[]`,
			want: []decl{
				{name: "i", typ: "int[]"},
				{name: "j", typ: "int []"},
			},
		},
		{
			caption: "initial values",
			src:     `int i = 3, T t = new T("foo"), j=a[34]+20`,
			want: []decl{
				{name: "i", typ: "int", init: "3"},
				{name: "t", typ: "T", init: `new T("foo")`},
				{name: "j", init: "a[34]+20"},
			},
		},
		{
			caption: "postfix declarators",
			src:     `x : int, y: map[string]int = nil, z`,
			want: []decl{
				{name: "x", typ: "int"},
				{name: "y", typ: "map[string]int", init: "nil"},
				{name: "z"},
			},
		},
		{
			caption: "a qualified type is not a postfix declarator",
			src:     `std::string s`,
			want: []decl{
				{name: "s", typ: "std::string"},
			},
		},
		{
			caption: "names without types",
			src:     `a, b`,
			want: []decl{
				{name: "a"},
				{name: "b"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			m := verr.NewManager()
			d := Parse(attr.DictKindArgument, "arguments", tt.src, tree.Position{Row: 1, Col: 3, Offset: 2}, m)
			require.Equal(t, 0, m.ErrorCount())
			require.Equal(t, len(tt.want), d.Len())
			for i, a := range d.Attributes() {
				assert.Equal(t, tt.want[i].name, a.Name)
				assert.Equal(t, tt.want[i].typ, a.Type)
				assert.Equal(t, tt.want[i].init, a.InitValue)
				assert.Equal(t, d, a.Dict)
			}
		})
	}
}

func TestParse_Position(t *testing.T) {
	// The list starts right after a `[` at row 3, column 5.
	open := tree.Position{Row: 3, Col: 5, Offset: 40}
	src := "int a,\n  // int z,\n  String bc"
	m := verr.NewManager()
	d := Parse(attr.DictKindLocal, "locals", src, open, m)
	require.Equal(t, []string{"a", "bc"}, d.Names())

	assert.Equal(t, tree.Position{Row: 3, Col: 10, Offset: 45}, d.Get("a").Pos)
	assert.Equal(t, tree.Position{Row: 5, Col: 10, Offset: 41 + len("int a,\n  // int z,\n  String ")}, d.Get("bc").Pos)
}

func TestParse_NoName(t *testing.T) {
	m := verr.NewManager()
	d := Parse(attr.DictKindReturn, "returns", `int x, ***`, tree.Position{Row: 1, Col: 1}, m)
	assert.Equal(t, 1, m.ErrorCount())
	assert.True(t, errors.Is(m.Errors()[0], verr.ErrCannotFindAttributeNameInDecl))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, "x", d.Attributes()[0].Name)
}
